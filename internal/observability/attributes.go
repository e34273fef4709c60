// Package observability exposes pipeline metrics through an OpenTelemetry
// meter backed by a Prometheus exporter.
package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys
const (
	attrStage      = "stage"
	attrOutcome    = "outcome"
	attrCapability = "capability"
)

func stageAttr(stage string) attribute.KeyValue {
	return attribute.String(attrStage, stage)
}

func outcomeAttr(outcome string) attribute.KeyValue {
	if outcome == "" {
		outcome = "unknown"
	}
	return attribute.String(attrOutcome, outcome)
}

func capabilityAttr(capability string) attribute.KeyValue {
	return attribute.String(attrCapability, capability)
}

// WithStage returns a metric option with the stage attribute.
func WithStage(stage string) metric.MeasurementOption {
	return metric.WithAttributes(stageAttr(stage))
}

// WithOutcome returns a metric option with the outcome attribute.
func WithOutcome(outcome string) metric.MeasurementOption {
	return metric.WithAttributes(outcomeAttr(outcome))
}
