package service

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors translated to HTTP status codes by the handlers.
var (
	ErrSentenciaNotFound  = errors.New("sentencia not found")
	ErrExpedienteNotFound = errors.New("expediente not found")
	ErrDocumentoNotFound  = errors.New("documento not found")
	ErrEscritoNotFound    = errors.New("escrito not found")
	ErrJobNotFound        = errors.New("job not found")

	// ErrValidation wraps request validation failures
	ErrValidation = errors.New("invalid request")

	// ErrVectorizerUnavailable is returned by operations that cannot run
	// without a loaded vectorizer artifact.
	ErrVectorizerUnavailable = errors.New("vectorizer unavailable")

	// ErrNoSimilarSentencias is returned when predictive analysis finds
	// no grounding rulings above the similarity threshold.
	ErrNoSimilarSentencias = errors.New("no similar sentencias found for analysis")
)

// notFound maps a repository no-rows error to a domain sentinel
func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

// uniqueViolation reports whether err is a Postgres unique constraint
// violation, SQLSTATE 23505.
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
