package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func JSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}

	return nil
}

// JSONValid decodes the body and then checks the struct's validate tags.
func JSONValid(r *http.Request, dest any) error {
	if err := JSON(r, dest); err != nil {
		return err
	}
	return Valid(dest)
}

func Valid(dest any) error {
	err := validate.Struct(dest)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(fields, "; "))
}
