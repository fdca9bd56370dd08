package view

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dcode-github/imovel_listing_system/models"
)

// Form is the raw input of the create/edit form, one string per text box.
type Form struct {
	Title       string
	Description string
	Address     string
	Purpose     string
	Price       string
	Bedrooms    string
	Bathrooms   string
	Garage      bool
	Agent       string
}

// FormFrom pre-fills the form with a listing, as the edit screen does.
func FormFrom(im models.Imovel) Form {
	return Form{
		Title:       im.Title,
		Description: im.Description,
		Address:     im.Address,
		Purpose:     im.Purpose.String(),
		Price:       strconv.FormatFloat(im.Price, 'f', -1, 64),
		Bedrooms:    strconv.Itoa(im.Bedrooms),
		Bathrooms:   strconv.Itoa(im.Bathrooms),
		Garage:      im.Garage,
		Agent:       im.Agent,
	}
}

// ValidationError maps a wire field name to the message shown next to it.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// formValues is the form after parsing, checked by the validator.
type formValues struct {
	Title       string         `json:"titulo" validate:"required,max=255"`
	Description string         `json:"descricao" validate:"required"`
	Address     string         `json:"endereco" validate:"required,max=255"`
	Purpose     models.Purpose `json:"finalidade" validate:"required"`
	Price       float64        `json:"valor" validate:"gt=0,lt=10000000000000"`
	Bedrooms    int            `json:"quartos" validate:"gt=0,lte=255"`
	Bathrooms   int            `json:"banheiros" validate:"gt=0,lte=255"`
	Agent       string         `json:"corretor" validate:"required,max=255"`
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

const (
	msgRequired     = "Campo obrigatório."
	msgTooLong      = "Máximo de %s caracteres."
	msgPositive     = "Informe um valor maior que zero."
	msgTooLarge     = "Valor acima do permitido."
	msgNotNumber    = "Informe um número válido."
	msgNotInteger   = "Informe um número inteiro."
	msgPurpose      = "Selecione Venda ou Locação."
	msgFormRejected = "Verifique os campos destacados."
)

// Validate checks the form and converts it into a normalized draft. It never
// touches the network.
func (f Form) Validate() (models.Draft, error) {
	fields := map[string]string{}
	vals := formValues{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Address:     strings.TrimSpace(f.Address),
		Agent:       strings.TrimSpace(f.Agent),
	}

	if strings.TrimSpace(f.Purpose) == "" {
		fields["finalidade"] = msgRequired
	} else if p, err := models.ParsePurpose(f.Purpose); err != nil {
		fields["finalidade"] = msgPurpose
	} else {
		vals.Purpose = p
	}

	if v, ok := parseNumber(f.Price, fields, "valor", msgNotNumber, func(s string) (float64, error) {
		return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	}); ok {
		vals.Price = v
	}
	if v, ok := parseNumber(f.Bedrooms, fields, "quartos", msgNotInteger, strconv.Atoi); ok {
		vals.Bedrooms = v
	}
	if v, ok := parseNumber(f.Bathrooms, fields, "banheiros", msgNotInteger, strconv.Atoi); ok {
		vals.Bathrooms = v
	}

	var verrs validator.ValidationErrors
	if err := formValidator.Struct(vals); errors.As(err, &verrs) {
		for _, e := range verrs {
			if _, seen := fields[e.Field()]; seen {
				continue
			}
			fields[e.Field()] = formMessage(e)
		}
	} else if err != nil {
		return models.Draft{}, err
	}

	if len(fields) > 0 {
		return models.Draft{}, &ValidationError{Fields: fields}
	}
	return models.Draft{
		Title:       vals.Title,
		Description: vals.Description,
		Address:     vals.Address,
		Purpose:     vals.Purpose,
		Price:       vals.Price,
		Bedrooms:    vals.Bedrooms,
		Bathrooms:   vals.Bathrooms,
		Garage:      f.Garage,
		Agent:       vals.Agent,
	}.Normalize(), nil
}

func parseNumber[T int | float64](raw string, fields map[string]string, field, badMsg string, parse func(string) (T, error)) (T, bool) {
	var zero T
	s := strings.TrimSpace(raw)
	if s == "" {
		fields[field] = msgRequired
		return zero, false
	}
	v, err := parse(s)
	if err != nil {
		fields[field] = badMsg
		return zero, false
	}
	return v, true
}

func formMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return msgRequired
	case "max":
		return fmt.Sprintf(msgTooLong, e.Param())
	case "gt":
		return msgPositive
	case "lt", "lte":
		return msgTooLarge
	default:
		return msgNotNumber
	}
}
