package drive

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"sharedrive/internal/config"
	"sharedrive/internal/domain"
)

// nameRules apply to folder and file display names
func nameRules(maxLen int) []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.RuneLength(1, maxLen),
		validation.By(func(value interface{}) error {
			if strings.ContainsAny(value.(string), "/\\\x00") {
				return fmt.Errorf("must not contain slashes or NUL")
			}
			return nil
		}),
	}
}

func validateFolderName(name string) error {
	if err := validation.Validate(name, nameRules(config.MaxFolderNameLength)...); err != nil {
		return fmt.Errorf("%w: folder name %v", domain.ErrValidation, err)
	}
	return nil
}

func validateFileName(name string) error {
	if err := validation.Validate(name, nameRules(config.MaxFileNameLength)...); err != nil {
		return fmt.Errorf("%w: file name %v", domain.ErrValidation, err)
	}
	return nil
}

func validateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		return fmt.Errorf("%w: email %v", domain.ErrValidation, err)
	}
	return nil
}

func validateIDs(ids []string) error {
	err := validation.Validate(ids,
		validation.Length(0, config.MaxBatchIDs),
		validation.Each(validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: ids %v", domain.ErrValidation, err)
	}
	return nil
}
