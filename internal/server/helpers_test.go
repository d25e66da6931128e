package server

import (
	"io"
	"log"

	"github.com/lib/pq"
)

func pqUniqueViolation() error {
	return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
