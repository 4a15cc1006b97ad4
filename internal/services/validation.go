package services

import (
	"fmt"
	"unicode/utf8"

	"github.com/sbilibin2017/gw-book-collection/internal/models"
)

// Column limits from schema.sql.
const (
	MaxTitleLength        = 255
	MaxAuthorLength       = 255
	MaxCategoryNameLength = 100
	MaxDescriptionLength  = 5000
	MaxEmailLength        = 255
	MinPublicationYear    = 0
	MaxPublicationYear    = 9999
)

func checkText(field, value string, maxLen int) error {
	if !utf8.ValidString(value) {
		return errorf(ErrValidation, field+" must be valid UTF-8")
	}
	if utf8.RuneCountInString(value) > maxLen {
		return errorf(ErrValidation, fmt.Sprintf("%s must be at most %d characters", field, maxLen))
	}
	return nil
}

func checkYear(year *int) error {
	if year != nil && (*year < MinPublicationYear || *year > MaxPublicationYear) {
		return errorf(ErrValidation, fmt.Sprintf("publication_year must be between %d and %d", MinPublicationYear, MaxPublicationYear))
	}
	return nil
}

func checkBookInput(in models.BookInput) error {
	if err := checkText("title", in.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := checkText("author", in.Author, MaxAuthorLength); err != nil {
		return err
	}
	if err := checkText("description", in.Description, MaxDescriptionLength); err != nil {
		return err
	}
	return checkYear(in.PublicationYear)
}

func checkBookUpdate(upd models.BookUpdate) error {
	if upd.Title != nil {
		if err := checkText("title", *upd.Title, MaxTitleLength); err != nil {
			return err
		}
	}
	if upd.Author != nil {
		if err := checkText("author", *upd.Author, MaxAuthorLength); err != nil {
			return err
		}
	}
	if upd.Description != nil {
		if err := checkText("description", *upd.Description, MaxDescriptionLength); err != nil {
			return err
		}
	}
	return checkYear(upd.PublicationYear)
}

func checkCategory(name string, description *string) error {
	if err := checkText("name", name, MaxCategoryNameLength); err != nil {
		return err
	}
	if description != nil {
		return checkText("description", *description, MaxDescriptionLength)
	}
	return nil
}
