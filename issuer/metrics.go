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

package issuer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openvci/issuer-node/core"
)

type metrics struct {
	offersCreated     prometheus.Counter
	tokensExchanged   prometheus.Counter
	credentialsIssued *prometheus.CounterVec
}

func newMetrics() (*metrics, error) {
	result := &metrics{
		offersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: core.MetricsPrefix + "offers_created_total",
			Help: "Number of credential offers created.",
		}),
		tokensExchanged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: core.MetricsPrefix + "token_exchanges_total",
			Help: "Number of pre-authorized codes successfully exchanged for an access token.",
		}),
		credentialsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: core.MetricsPrefix + "credentials_issued_total",
			Help: "Number of credentials issued, by format.",
		}, []string{"format"}),
	}
	are := prometheus.AlreadyRegisteredError{}
	for _, c := range []prometheus.Collector{result.offersCreated, result.tokensExchanged, result.credentialsIssued} {
		if err := prometheus.Register(c); err != nil && err.Error() != are.Error() {
			return nil, err
		}
	}
	return result, nil
}
