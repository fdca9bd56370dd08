package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dcode-github/imovel_listing_system/cache"
	"github.com/dcode-github/imovel_listing_system/logging"
	"github.com/dcode-github/imovel_listing_system/models"
	"github.com/dcode-github/imovel_listing_system/store"
)

type Deps struct {
	Store store.Store
	Cache cache.Cache
}

func (d Deps) cache() cache.Cache {
	if d.Cache == nil {
		return cache.Nop{}
	}
	return d.Cache
}

// decodeBody decodes a JSON payload. An empty body decodes as an empty
// object so that validation reports the missing fields. A field of the wrong
// JSON type is reported as a validation error on that field, anything else,
// including trailing data after the value, as a bad body.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	log := logging.FromContext(r.Context())
	dec := json.NewDecoder(r.Body)

	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return true
	}
	if err == nil {
		if _, err = dec.Token(); errors.Is(err, io.EOF) {
			return true
		}
		log.Info("Trailing data after request body", "error", err)
		writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
		return false
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		log.Info("Invalid field type", "field", typeErr.Field, "error", err)
		fe := FieldErrors{}
		fe.add(typeErr.Field, "The "+typeErr.Field+" field has an invalid type.")
		writeValidation(w, r, fe)
		return false
	}

	log.Info("Invalid request body", "error", err)
	writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
	return false
}

// invalidate drops every cached response after a mutation. A cache failure
// only costs freshness, so it is logged and swallowed.
func invalidate(r *http.Request, d Deps) {
	if err := d.cache().Invalidate(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn("Cache invalidation failed", "error", err)
	}
}

// serveCached writes a cache hit and reports whether it did.
func serveCached(w http.ResponseWriter, r *http.Request, d Deps, key string) bool {
	log := logging.FromContext(r.Context())
	cached, ok, err := d.cache().Get(r.Context(), key)
	if err != nil {
		log.Warn("Cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		log.Debug("Cache miss", "key", key)
		return false
	}
	log.Debug("Cache hit", "key", key)
	writeRaw(w, http.StatusOK, cached)
	return true
}

// cacheVersion returns the version the request's cache keys are built from.
// Caching is skipped for the request when the version cannot be read.
func cacheVersion(r *http.Request, d Deps) (uint64, bool) {
	v, err := d.cache().Version(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("Cache version read failed", "error", err)
		return 0, false
	}
	return v, true
}

// storeCached stores body unless a mutation invalidated the cache since the
// request read version.
func storeCached(r *http.Request, d Deps, version uint64, key string, body []byte) {
	log := logging.FromContext(r.Context())
	current, err := d.cache().Version(r.Context())
	if err != nil {
		log.Warn("Cache version read failed", "error", err)
		return
	}
	if current != version {
		log.Debug("Skipping stale cache write", "key", key, "version", version, "current", current)
		return
	}
	if err := d.cache().Set(r.Context(), key, body); err != nil {
		log.Warn("Cache write failed", "key", key, "error", err)
	}
}

func IndexImoveis(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version, cacheable := cacheVersion(r, d)
		if cacheable && serveCached(w, r, d, cache.ListKey(version)) {
			return
		}

		imoveis, err := d.Store.List(r.Context())
		if err != nil {
			logging.FromContext(r.Context()).Error("Error fetching imoveis", "error", err)
			writeMessage(w, r, http.StatusInternalServerError, msgInternalServer)
			return
		}
		if imoveis == nil {
			imoveis = []models.Imovel{}
		}

		body, err := json.Marshal(imoveis)
		if err != nil {
			logging.FromContext(r.Context()).Error("Failed to serialize imoveis", "error", err)
			writeMessage(w, r, http.StatusInternalServerError, msgInternalServer)
			return
		}
		if cacheable {
			storeCached(r, d, version, cache.ListKey(version), body)
		}
		writeRaw(w, http.StatusOK, body)
	}
}

func CreateImovel(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		var payload models.CreateImovel
		if !decodeBody(w, r, &payload) {
			return
		}
		if fe := validatePayload(payload); fe != nil {
			log.Info("Validation failed", "errors", fe)
			writeValidation(w, r, fe)
			return
		}

		imovel, err := d.Store.Create(r.Context(), payload.Draft())
		if err != nil {
			log.Error("Insert failed", "error", err)
			writeMessage(w, r, http.StatusInternalServerError, msgInternalServer)
			return
		}
		invalidate(r, d)

		log.Info("Imovel created", "id", imovel.ID)
		writeJSON(w, r, http.StatusCreated, imovel)
	}
}

func ShowImovel(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		version, cacheable := cacheVersion(r, d)
		key := cache.ItemKey(version, id)
		if cacheable && serveCached(w, r, d, key) {
			return
		}

		imovel, err := d.Store.Get(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, r, http.StatusNotFound, msgNotFound)
			return
		}
		if err != nil {
			logging.FromContext(r.Context()).Error("Error fetching imovel", "id", id, "error", err)
			writeMessage(w, r, http.StatusInternalServerError, msgInternalServer)
			return
		}

		body, err := json.Marshal(imovel)
		if err != nil {
			logging.FromContext(r.Context()).Error("Failed to serialize imovel", "id", id, "error", err)
			writeMessage(w, r, http.StatusInternalServerError, msgInternalServer)
			return
		}
		if cacheable {
			storeCached(r, d, version, key, body)
		}
		writeRaw(w, http.StatusOK, body)
	}
}

// UpdateImovel serves both PUT and PATCH. An unknown id is reported before
// the body is validated.
func UpdateImovel(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())
		id := mux.Vars(r)["id"]

		current, err := d.Store.Get(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, r, http.StatusNotFound, msgNotFound)
			return
		}
		if err != nil {
			log.Error("Error fetching imovel", "id", id, "error", err)
			writeMessage(w, r, http.StatusInternalServerError, msgInternalServer)
			return
		}

		var patch models.PatchImovel
		if !decodeBody(w, r, &patch) {
			return
		}
		if fe := validatePayload(patch); fe != nil {
			log.Info("Validation failed", "id", id, "errors", fe)
			writeValidation(w, r, fe)
			return
		}
		if patch.Empty() {
			writeJSON(w, r, http.StatusOK, current)
			return
		}

		imovel, err := d.Store.Update(r.Context(), id, patch.Normalize())
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, r, http.StatusNotFound, msgNotFound)
			return
		}
		if err != nil {
			log.Error("Update failed", "id", id, "error", err)
			writeMessage(w, r, http.StatusInternalServerError, msgInternalServer)
			return
		}
		invalidate(r, d)

		log.Info("Imovel updated", "id", id)
		writeJSON(w, r, http.StatusOK, imovel)
	}
}

func DeleteImovel(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())
		id := mux.Vars(r)["id"]

		err := d.Store.Delete(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, r, http.StatusNotFound, msgNotFound)
			return
		}
		if err != nil {
			log.Error("Delete failed", "id", id, "error", err)
			writeMessage(w, r, http.StatusInternalServerError, msgInternalServer)
			return
		}
		invalidate(r, d)

		log.Info("Imovel deleted", "id", id)
		writeMessage(w, r, http.StatusOK, msgDeleted)
	}
}

func Hello() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, r, http.StatusOK, "Hello world")
	}
}
