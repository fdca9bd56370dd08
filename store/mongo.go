package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dcode-github/imovel_listing_system/models"
)

type imovelDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"titulo"`
	Description string             `bson:"descricao"`
	Address     string             `bson:"endereco"`
	Purpose     string             `bson:"finalidade"`
	Price       float64            `bson:"valor"`
	Bedrooms    int                `bson:"quartos"`
	Bathrooms   int                `bson:"banheiros"`
	Garage      bool               `bson:"garagem"`
	Agent       string             `bson:"corretor"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (doc imovelDocument) model() models.Imovel {
	return models.Imovel{
		ID:          doc.ID.Hex(),
		Title:       doc.Title,
		Description: doc.Description,
		Address:     doc.Address,
		Purpose:     models.Purpose(doc.Purpose),
		Price:       doc.Price,
		Bedrooms:    doc.Bedrooms,
		Bathrooms:   doc.Bathrooms,
		Garage:      doc.Garage,
		Agent:       doc.Agent,
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}
}

// patchSet builds the $set document for the present fields of p.
func patchSet(p models.PatchImovel, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if p.Title != nil {
		set["titulo"] = *p.Title
	}
	if p.Description != nil {
		set["descricao"] = *p.Description
	}
	if p.Address != nil {
		set["endereco"] = *p.Address
	}
	if p.Purpose != nil {
		set["finalidade"] = string(*p.Purpose)
	}
	if p.Price != nil {
		set["valor"] = *p.Price
	}
	if p.Bedrooms != nil {
		set["quartos"] = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		set["banheiros"] = *p.Bathrooms
	}
	if p.Garage != nil {
		set["garagem"] = *p.Garage
	}
	if p.Agent != nil {
		set["corretor"] = *p.Agent
	}
	return set
}

type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{
		coll: coll,
		// Mongo keeps millisecond precision only.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *MongoStore) List(ctx context.Context) ([]models.Imovel, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.coll.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find imoveis: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []imovelDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode imoveis: %w", err)
	}

	out := make([]models.Imovel, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.model())
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (models.Imovel, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Imovel{}, ErrNotFound
	}

	var doc imovelDocument
	err = s.coll.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Imovel{}, ErrNotFound
	}
	if err != nil {
		return models.Imovel{}, fmt.Errorf("find imovel %s: %w", id, err)
	}
	return doc.model(), nil
}

func (s *MongoStore) Create(ctx context.Context, d models.Draft) (models.Imovel, error) {
	now := s.now()
	doc := imovelDocument{
		ID:          primitive.NewObjectID(),
		Title:       d.Title,
		Description: d.Description,
		Address:     d.Address,
		Purpose:     string(d.Purpose),
		Price:       d.Price,
		Bedrooms:    d.Bedrooms,
		Bathrooms:   d.Bathrooms,
		Garage:      d.Garage,
		Agent:       d.Agent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return models.Imovel{}, fmt.Errorf("insert imovel: %w", err)
	}
	return doc.model(), nil
}

func (s *MongoStore) Update(ctx context.Context, id string, p models.PatchImovel) (models.Imovel, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Imovel{}, ErrNotFound
	}

	update := bson.M{"$set": patchSet(p, s.now())}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc imovelDocument
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Imovel{}, ErrNotFound
	}
	if err != nil {
		return models.Imovel{}, fmt.Errorf("update imovel %s: %w", id, err)
	}
	return doc.model(), nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("delete imovel %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
