// Package telemetry provides Pyroscope continuous profiling integration.
package telemetry

import (
	"context"
	"maps"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelBuildingID = "building_id"
	ProfilingLabelOperation  = "operation"
	ProfilingLabelRegion     = "region"
)

// MaxLabelValueLength caps label values so a runaway value cannot blow up
// Pyroscope's memory.
const MaxLabelValueLength = 128

// HighCardinalityLabels are keys sanitizeLabels drops outright. Do not modify
// at runtime. building_id stays allowed: a deployment manages tens of
// buildings, not thousands.
var HighCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"payment_id": true,
	"trace_id":   true,
	"span_id":    true,
	"session_id": true,
}

// prepareLabels copies, sanitizes and flattens the label map, nil when nothing
// usable remains. The copy makes it safe for callers to reuse their map.
func prepareLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	labelsCopy := make(map[string]string, len(labels))
	maps.Copy(labelsCopy, labels)
	return sanitizeLabels(labelsCopy)
}

// WithProfilingLabels runs fn under the given Pyroscope labels, so samples
// taken inside can be sliced by controller, route or building in the UI.
//
//	telemetry.WithProfilingLabels(ctx, map[string]string{
//	    "controller": "InvoiceHandler",
//	    "operation": "GenerateMonthlyInvoices",
//	}, func(c context.Context) {
//	    generate(c)
//	})
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	labelPairs := prepareLabels(labels)
	if len(labelPairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(labelPairs...), fn)
}

// WithPprofLabels does the same through Go's native pprof API, for profiles
// consumed by standard Go tooling rather than the Pyroscope SDK.
func WithPprofLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	labelPairs := prepareLabels(labels)
	if len(labelPairs) == 0 {
		fn(ctx)
		return
	}
	pprof.Do(ctx, pprof.Labels(labelPairs...), fn)
}

// ProfilingScope accumulates labels incrementally before running a function
// under them.
type ProfilingScope struct {
	labels map[string]string
}

// NewProfilingScope creates a scope seeded with labels.
func NewProfilingScope(labels map[string]string) *ProfilingScope {
	scope := &ProfilingScope{labels: make(map[string]string)}
	maps.Copy(scope.labels, labels)
	return scope
}

// WithLabel adds a single label to the scope.
func (s *ProfilingScope) WithLabel(key, value string) *ProfilingScope {
	s.labels[key] = value
	return s
}

// WithController adds the controller label.
func (s *ProfilingScope) WithController(controller string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelController, controller)
}

// WithRoute adds the route label.
func (s *ProfilingScope) WithRoute(route string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelRoute, route)
}

// WithMethod adds the method label.
func (s *ProfilingScope) WithMethod(method string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelMethod, method)
}

// WithBuildingID adds the building_id label.
func (s *ProfilingScope) WithBuildingID(buildingID string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelBuildingID, buildingID)
}

// WithOperation adds the operation label.
func (s *ProfilingScope) WithOperation(operation string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelOperation, operation)
}

// WithRegion adds the region label for code regions.
func (s *ProfilingScope) WithRegion(region string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelRegion, region)
}

// Labels returns a copy of the current labels.
func (s *ProfilingScope) Labels() map[string]string {
	result := make(map[string]string, len(s.labels))
	maps.Copy(result, s.labels)
	return result
}

// Run executes fn with the accumulated labels.
func (s *ProfilingScope) Run(ctx context.Context, fn func(context.Context)) {
	WithProfilingLabels(ctx, s.labels, fn)
}

// sanitizeLabels drops empty and high-cardinality entries, truncates long
// values, normalizes keys and returns the pairs sorted by key so the flat
// slice is deterministic.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if key == "" || value == "" {
			continue
		}
		// Dropped silently; logging here would spam the hot path.
		if HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		sanitizedKey := sanitizeLabelKey(key)
		if sanitizedKey == "" {
			continue
		}
		pairs = append(pairs, sanitizedKey, value)
	}
	return pairs
}

// sanitizeLabelKey forces keys into snake_case, stripping anything that is
// not alphanumeric or underscore.
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")

	result := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			result = append(result, c)
		}
	}
	return string(result)
}

// HTTPRequestLabels builds the standard label set for HTTP handler profiling.
func HTTPRequestLabels(controller, route, method, buildingID string) map[string]string {
	labels := make(map[string]string, 4)
	if controller != "" {
		labels[ProfilingLabelController] = controller
	}
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	if buildingID != "" {
		labels[ProfilingLabelBuildingID] = buildingID
	}
	return labels
}

// OperationLabels creates labels for a named operation.
func OperationLabels(operation string, extraLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(extraLabels)+1)
	labels[ProfilingLabelOperation] = operation
	maps.Copy(labels, extraLabels)
	return labels
}

// RegionLabels creates labels for a code region such as a database call.
func RegionLabels(region string, extraLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(extraLabels)+1)
	labels[ProfilingLabelRegion] = region
	maps.Copy(labels, extraLabels)
	return labels
}
