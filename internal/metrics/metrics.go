// Package metrics defines the custom Prometheus metrics of the backoffice
// services. It is the single source of truth for metric names, labels and help
// strings. All metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/piar/backoffice/internal/core/domain"
)

const namespace = "backoffice"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthLoginsTotal counts login attempts.
// Label:
//   - result: "success" or the error code (e.g. "INVALID_CREDENTIALS")
var AuthLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthRegistrationsTotal counts registration attempts.
// Label:
//   - result: "success" or the error code (e.g. "RESOURCE_ALREADY_EXISTS")
var AuthRegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// AuthRoleUpdatesTotal counts role changes.
var AuthRoleUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_role_updates_total",
		Help:      "Total number of role update attempts, by result.",
	},
	[]string{"result"},
)

// ── Token metrics ─────────────────────────────────────────────────────────────

// TokenVerificationsTotal counts bearer token verifications.
// Label:
//   - result: "valid", "expired", "invalid" or "revoked"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer token verifications, by result.",
	},
	[]string{"result"},
)

// ── Gate metrics ──────────────────────────────────────────────────────────────

// GateDecisionsTotal counts route gate outcomes on both enforcement points.
// Labels:
//   - layer: "bff" or "web"
//   - decision: "allow", "unauthenticated", "forbidden", "signed_in", "locale"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of route gate decisions, by layer and outcome.",
	},
	[]string{"layer", "decision"},
)

// Result turns an outcome into a low-cardinality label value: "success" or
// the error code.
func Result(err error) string {
	if err == nil {
		return "success"
	}
	return string(domain.CodeOf(err))
}
