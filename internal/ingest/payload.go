package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/validate"
)

// Payload is the webhook body.
type Payload struct {
	Pair      string      `json:"pair" validate:"required"`
	Timeframe string      `json:"timeframe" validate:"required"`
	Timestamp string      `json:"timestamp" validate:"required"`
	Data      PayloadData `json:"data"`
}

// PayloadData carries the event value. Type is the discriminant; when it
// is absent the kind is inferred from which value is present.
type PayloadData struct {
	Type               string  `json:"type,omitempty" validate:"omitempty,oneof=direction confirmation"`
	Direction          *string `json:"direction,omitempty"`
	ConfirmationStatus *string `json:"confirmationStatus,omitempty"`
}

// Event validates the payload and converts it into a typed event.
func (p Payload) Event(ctx context.Context) (core.Event, error) {
	p.Pair = strings.TrimSpace(p.Pair)
	p.Timeframe = strings.TrimSpace(p.Timeframe)
	p.Timestamp = strings.TrimSpace(p.Timestamp)

	if err := validate.Struct(ctx, &p); err != nil {
		return nil, err
	}

	header := core.EventHeader{Pair: p.Pair, Timeframe: p.Timeframe, Timestamp: p.Timestamp}
	direction := value(p.Data.Direction)
	status := value(p.Data.ConfirmationStatus)

	kind := core.EventKind(p.Data.Type)
	if kind == "" {
		switch {
		case direction != "" && status != "":
			return nil, core.WrapError(core.ErrInvalidField,
				errors.New("data carries both direction and confirmationStatus without a type"))
		case direction != "":
			kind = core.KindDirection
		case status != "":
			kind = core.KindConfirmation
		default:
			return nil, core.WrapError(core.ErrMissingField,
				errors.New("data.direction or data.confirmationStatus is required"))
		}
	}

	switch kind {
	case core.KindDirection:
		if direction == "" {
			return nil, core.WrapError(core.ErrMissingField, errors.New("data.direction is required"))
		}
		d, err := core.ParseDirection(direction)
		if err != nil {
			return nil, err
		}
		return core.DirectionEvent{EventHeader: header, Direction: d}, nil
	case core.KindConfirmation:
		if status == "" {
			return nil, core.WrapError(core.ErrMissingField, errors.New("data.confirmationStatus is required"))
		}
		return core.ConfirmationEvent{EventHeader: header, Status: core.ConfirmationStatus(status)}, nil
	default:
		return nil, core.WrapError(core.ErrInvalidField, fmt.Errorf("unknown data.type %q", kind))
	}
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
