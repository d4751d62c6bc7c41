package service

import (
	"context"
	"encoding/json"
	"fmt"

	"watchfolio-be/pkg/assistant/telemetry"
)

// interactionReporter hands interactions to the in-process event bus. The
// consumer service picks them up and forwards them to NATS, so a slow broker
// never blocks the controller's submit path.
type interactionReporter struct {
	publisher IPublisherService
}

func NewInteractionReporter(publisher IPublisherService) telemetry.Reporter {
	return &interactionReporter{publisher: publisher}
}

func (r *interactionReporter) Report(ctx context.Context, interaction telemetry.Interaction) error {
	payload, err := json.Marshal(interaction)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction: %w", err)
	}
	return r.publisher.Publish(ctx, payload)
}
