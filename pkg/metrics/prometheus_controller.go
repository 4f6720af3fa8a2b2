package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/application"
)

type PrometheusController struct {
	path     string
	gatherer prometheus.Gatherer
}

func NewPrometheusController(path string) application.Controller {
	return newPrometheusController(path, prometheus.DefaultGatherer)
}

func newPrometheusController(path string, gatherer prometheus.Gatherer) *PrometheusController {
	if path == "" {
		path = "/debug/prometheus"
	}
	return &PrometheusController{path: path, gatherer: gatherer}
}

func (c *PrometheusController) Key() string {
	return c.path
}

func (c *PrometheusController) Register(r *mux.Router) {
	r.Handle(c.path, promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}
