// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package coordinator

import "go.opentelemetry.io/otel"

var tracer = otel.GetTracerProvider().Tracer("github.com/glimpsed/datecoord/internal/coordinator")
