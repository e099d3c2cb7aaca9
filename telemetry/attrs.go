package telemetry

import "go.opentelemetry.io/otel/attribute"

func attrResource(kind string) attribute.KeyValue { return attribute.String("resource", kind) }
func attrStatus(status string) attribute.KeyValue { return attribute.String("status", status) }
func attrList(list string) attribute.KeyValue     { return attribute.String("list", list) }
