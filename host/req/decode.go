package req

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/schema"
	"github.com/xy-planning-network/switchyard"
)

type queryParamDecoder struct {
	*schema.Decoder
}

func newQueryParamDecoder() queryParamDecoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)

	return queryParamDecoder{dec}
}

func (d queryParamDecoder) decode(structPtr any, params map[string][]string) error {
	if err := d.Decode(structPtr, params); err != nil {
		return translateDecoderError(err)
	}

	return nil
}

// translateDecoderError converts an error returned by *schema.Decoder into standardized errors.
// Mismatches between a request's query params and the expected shape become ValidationErrors;
// anything else is a programming error.
func translateDecoderError(err error) error {
	var pkgErrs schema.MultiError
	// NOTE: outside of decoding into a non-pointer,
	// schema wraps every error it returns in a MultiError.
	if !errors.As(err, &pkgErrs) {
		return fmt.Errorf("%w: %s", switchyard.ErrUnexpected, err)
	}

	var validErrs ValidationErrors
	for _, pkgErr := range pkgErrs {
		switch err := pkgErr.(type) {
		case schema.ConversionError:
			validErrs = append(validErrs, ValidationError{
				Field: err.Key,
				Got:   fmt.Sprintf("bad value at index %d", max(0, err.Index)),
				Rule:  "must be " + err.Type.String(),
			})

		case schema.UnknownKeyError:
			validErrs = append(validErrs, ValidationError{
				Field: err.Key,
				Got:   "value is set",
				Rule:  "unexpected key should not be set",
			})

		default:
			if strings.Contains(err.Error(), "schema: converter not found for") {
				return fmt.Errorf("%w: cannot convert values into unsupported type", switchyard.ErrUnexpected)
			}

			return fmt.Errorf("%w: %s", switchyard.ErrUnexpected, err)
		}
	}

	return validErrs.sorted()
}
