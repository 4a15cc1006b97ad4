package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-book-collection/internal/logger"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
	"github.com/sbilibin2017/gw-book-collection/internal/storage"
)

const (
	coverField = "cover_image"
	// Room for the text fields next to a maximum size cover.
	maxBookBody   = storage.MaxFileSize + 1<<20
	maxFormMemory = 1 << 20
)

// errBadForm marks a client mistake in the book body.
var errBadForm = errors.New("invalid request body")

// bookForm holds the fields present in a create or update body.
// A nil field was not sent.
type bookForm struct {
	Title           *string
	Author          *string
	Description     *string
	PublicationYear *int
	CategoryID      *uuid.NullUUID // Valid=false clears the category
	Upload          *models.Upload
}

func (f *bookForm) input() models.BookInput {
	in := models.BookInput{PublicationYear: f.PublicationYear}
	if f.Title != nil {
		in.Title = *f.Title
	}
	if f.Author != nil {
		in.Author = *f.Author
	}
	if f.Description != nil {
		in.Description = *f.Description
	}
	if f.CategoryID != nil && f.CategoryID.Valid {
		id := f.CategoryID.UUID
		in.CategoryID = &id
	}
	return in
}

func (f *bookForm) update() models.BookUpdate {
	return models.BookUpdate{
		Title:           f.Title,
		Author:          f.Author,
		Description:     f.Description,
		PublicationYear: f.PublicationYear,
		CategoryID:      f.CategoryID,
	}
}

// parseBookForm reads a multipart or JSON book body. The returned cleanup
// releases temporary files of the multipart form and must always be called.
func parseBookForm(w http.ResponseWriter, r *http.Request) (*bookForm, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxBookBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return parseMultipartBook(r)
	}

	form, err := parseJSONBook(r.Body)
	return form, noop, err
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		return storage.ErrFileTooLarge
	}
	logger.Log.Debugw("malformed book body", "err", err)
	return errBadForm
}

func parseMultipartBook(r *http.Request) (*bookForm, func(), error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, func() {}, bodyError(err)
	}
	mf := r.MultipartForm
	cleanup := func() { mf.RemoveAll() }

	value := func(name string) (string, bool) {
		vals, ok := mf.Value[name]
		if !ok || len(vals) == 0 {
			return "", false
		}
		return vals[0], true
	}

	form := &bookForm{}
	if v, ok := value("title"); ok {
		form.Title = &v
	}
	if v, ok := value("author"); ok {
		form.Author = &v
	}
	if v, ok := value("description"); ok {
		form.Description = &v
	}
	if v, ok := value("publication_year"); ok {
		year, err := parseYear(v)
		if err != nil {
			return nil, cleanup, err
		}
		form.PublicationYear = year
	}
	if v, ok := value("category_id"); ok {
		id, err := parseCategoryID(v)
		if err != nil {
			return nil, cleanup, err
		}
		form.CategoryID = id
	}

	if files := mf.File[coverField]; len(files) > 0 {
		header := files[0]
		file, err := header.Open()
		if err != nil {
			return nil, cleanup, fmt.Errorf("open %s: %w", coverField, err)
		}
		cleanup = func() {
			file.Close()
			mf.RemoveAll()
		}
		form.Upload = &models.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	}

	return form, cleanup, nil
}

func parseJSONBook(body io.Reader) (*bookForm, error) {
	raw := map[string]json.RawMessage{}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, bodyError(err)
	}

	form := &bookForm{}
	str := func(name string) (*string, error) {
		msg, ok := raw[name]
		if !ok || isNull(msg) {
			return nil, nil
		}
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return nil, fmt.Errorf("%w: %s must be a string", errBadForm, name)
		}
		return &s, nil
	}

	var err error
	if form.Title, err = str("title"); err != nil {
		return nil, err
	}
	if form.Author, err = str("author"); err != nil {
		return nil, err
	}
	if form.Description, err = str("description"); err != nil {
		return nil, err
	}

	if msg, ok := raw["publication_year"]; ok && !isNull(msg) {
		var year int
		if err := json.Unmarshal(msg, &year); err == nil {
			form.PublicationYear = &year
		} else {
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return nil, fmt.Errorf("%w: publication_year must be an integer", errBadForm)
			}
			if form.PublicationYear, err = parseYear(s); err != nil {
				return nil, err
			}
		}
	}

	if msg, ok := raw["category_id"]; ok {
		if isNull(msg) {
			form.CategoryID = &uuid.NullUUID{}
		} else {
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return nil, fmt.Errorf("%w: category_id must be a string", errBadForm)
			}
			if form.CategoryID, err = parseCategoryID(s); err != nil {
				return nil, err
			}
		}
	}

	return form, nil
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}

// parseYear treats an empty value as not sent.
func parseYear(v string) (*int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%w: publication_year must be an integer", errBadForm)
	}
	return &year, nil
}

// parseCategoryID treats an empty value as an explicit "no category".
func parseCategoryID(v string) (*uuid.NullUUID, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return &uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("%w: category_id is not a valid id", errBadForm)
	}
	return &uuid.NullUUID{UUID: id, Valid: true}, nil
}

// writeFormError answers a failed parseBookForm.
func writeFormError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadForm) {
		msg := "Invalid request body"
		if err != errBadForm {
			msg = strings.TrimPrefix(err.Error(), errBadForm.Error()+": ")
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	writeServiceError(w, err)
}
