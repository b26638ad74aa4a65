package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portalauth_logins_total",
		Help: "Successful logins by provider",
	}, []string{"provider"})

	loginFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portalauth_login_failures_total",
		Help: "Rejected login attempts",
	})

	tokensIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portalauth_tokens_issued_total",
		Help: "Session tokens issued",
	})

	tokenVerifyFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portalauth_token_verify_failures_total",
		Help: "Token verifications that collapsed to unauthenticated",
	}, []string{"reason"})

	exchangeRedemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portalauth_exchange_redemptions_total",
		Help: "One-time exchange redemption attempts",
	}, []string{"outcome"})
)
