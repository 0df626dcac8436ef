package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	namewrap "github.com/rvellem/namewrap"
	"github.com/rvellem/namewrap/metrics/export/prometheus"
	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
)

type ownerResponse struct {
	Node  string `json:"node"`
	Owner string `json:"owner,omitempty"`
}

type fusesResponse struct {
	Node           string   `json:"node"`
	Fuses          uint32   `json:"fuses"`
	FuseNames      []string `json:"fuse_names,omitempty"`
	Vulnerability  string   `json:"vulnerability"`
	VulnerableNode string   `json:"vulnerable_node,omitempty"`
	Expiry         uint64   `json:"expiry"`
}

type uriResponse struct {
	Node string `json:"node"`
	URI  string `json:"uri,omitempty"`
}

type healthResponse struct {
	RedisAvailable bool  `json:"redis_available"`
	RedisLatencyMS int64 `json:"redis_latency_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the read-only JSON surface for a wrapping engine plus the
// Prometheus text endpoint.
func Handler(engine *namewrap.Engine) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/owner/{node}", ownerHandler(engine))
	mux.HandleFunc("GET /v1/fuses/{node}", fusesHandler(engine))
	mux.HandleFunc("GET /v1/uri/{node}", uriHandler(engine))
	mux.HandleFunc("GET /v1/health", healthHandler(engine))
	mux.Handle("GET /metrics", prometheus.NewPrometheusExporter(engine).Handler())
	return mux
}

func ownerHandler(engine *namewrap.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, ok := parseNode(w, r)
		if !ok {
			return
		}

		owner, err := engine.OwnerOf(r.Context(), n)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ownerResponse{Node: n.String(), Owner: owner})
	}
}

func fusesHandler(engine *namewrap.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, ok := parseNode(w, r)
		if !ok {
			return
		}

		report, err := engine.GetFuses(r.Context(), n)
		if err != nil {
			writeError(w, err)
			return
		}

		resp := fusesResponse{
			Node:          n.String(),
			Fuses:         uint32(report.Fuses),
			FuseNames:     report.Fuses.Names(),
			Vulnerability: report.Vulnerability.String(),
			Expiry:        report.Expiry,
		}
		if !report.VulnerableNode.IsZero() {
			resp.VulnerableNode = report.VulnerableNode.String()
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func uriHandler(engine *namewrap.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, ok := parseNode(w, r)
		if !ok {
			return
		}

		uri, err := engine.URI(r.Context(), n)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, uriResponse{Node: n.String(), URI: uri})
	}
}

func healthHandler(engine *namewrap.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := engine.Health(r.Context())
		code := http.StatusOK
		if !status.RedisAvailable {
			code = http.StatusServiceUnavailable
		}

		writeJSON(w, code, healthResponse{
			RedisAvailable: status.RedisAvailable,
			RedisLatencyMS: status.RedisLatency.Milliseconds(),
		})
	}
}

func parseNode(w http.ResponseWriter, r *http.Request) (node.ID, bool) {
	n, err := node.ParseID(r.PathValue("node"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid node id"})
		return node.ID{}, false
	}
	return n, true
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, record.ErrRedisUnavailable) {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
