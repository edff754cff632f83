/*
 * Copyright (C) 2025 OpenVCI community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package core

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsPrefix is prepended to all metric names of this node.
const MetricsPrefix = "issuer_"

// MetricsEngine exposes prometheus metrics on /metrics.
// By default the Go and process collectors are enabled.
type MetricsEngine struct{}

// Configure registers the default collectors.
func (MetricsEngine) Configure() error {
	defaults := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	are := prometheus.AlreadyRegisteredError{}
	for _, c := range defaults {
		if err := prometheus.Register(c); err != nil && err.Error() != are.Error() {
			return err
		}
	}
	return nil
}

// Routes registers the metrics endpoint.
func (MetricsEngine) Routes(router EchoRouter) {
	router.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
