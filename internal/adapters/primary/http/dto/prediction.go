package dto

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"

	"insurance-prediction-service/internal/core/domain"
)

type PredictionResponse struct {
	PredictedCharge float64 `json:"predicted_charge"`
	ModelVersion    string  `json:"model_version"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func ToPredictionResponse(p *domain.Prediction) PredictionResponse {
	return PredictionResponse{
		PredictedCharge: p.Charge,
		ModelVersion:    p.Version,
	}
}

// ToRecord parses a request body holding exactly one JSON object into a feature
// record. Numbers become numeric values; strings and booleans become categories.
func ToRecord(body []byte) (domain.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: request body is empty", domain.ErrBadInput)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: request body is not valid JSON", domain.ErrBadInput)
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("%w: request body must be a JSON object of feature values", domain.ErrBadInput)
	}

	record := make(domain.Record)
	var err error
	parsed.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		switch value.Type {
		case gjson.Number:
			num, perr := strconv.ParseFloat(value.Raw, 64)
			if perr != nil || math.IsInf(num, 0) {
				err = fmt.Errorf("%w: feature %q is not a representable number", domain.ErrBadInput, name)
				return false
			}
			record[name] = domain.Numeric(num)
		case gjson.String, gjson.True, gjson.False:
			record[name] = domain.Categorical(value.String())
		default:
			err = fmt.Errorf("%w: feature %q must be a number or string", domain.ErrBadInput, name)
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
