/*
Package api serves the recommendation engine over HTTP.

Routes:

	GET|POST /api/v1/recommend     keyword recommendation (top 5)
	GET      /api/v1/search        full-text search (q, count, sort)
	POST     /api/v1/search        same, JSON body {"query", "count", "sort"}
	GET      /api/v1/catalog/stats catalog summary
	GET      /api/v1/health/live   process liveness
	GET      /api/v1/health/ready  200 once a catalog snapshot is published
	GET      /metrics              Prometheus metrics

Every query runs against the snapshot published at the time the request
arrives. Until the first snapshot is published query routes answer 503.
*/
package api
