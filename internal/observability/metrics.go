package observability

// Use-case RED metrics, labelled use_case and outcome.
const (
	MUsecaseRequests MetricKey = "usecase_requests_total"
	MUsecaseDuration MetricKey = "usecase_duration_seconds"
)

// HTTP adapter metrics, labelled method, route and status.
const (
	MHTTPRequests        MetricKey = "http_requests_total"
	MHTTPRequestDuration MetricKey = "http_request_duration_seconds"
)

// Calls leaving the service (event bus, cache), labelled peer and endpoint.
const (
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
)

// MPaymentOutcomes counts recorded and overridden payments by method and status.
const MPaymentOutcomes MetricKey = "payment_outcomes_total"
