package classifier

import "errors"

var (
	// ErrModelLoad is returned when an artifact is missing, corrupt or
	// incompatible with the feature catalog.
	ErrModelLoad = errors.New("model load failed")

	// ErrPrediction is returned when a vector does not fit the model.
	ErrPrediction = errors.New("prediction failed")
)
