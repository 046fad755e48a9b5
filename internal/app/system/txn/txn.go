// internal/app/system/txn/txn.go

// Package txn wraps multi-document MongoDB transactions with a fallback
// for deployments that do not support them (standalone servers, some
// DocumentDB versions). Callers express the whole read-modify-write as a
// single function; when transactions are unavailable the function runs
// without one and the caller accepts the weaker guarantee.
package txn

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// WithTransaction runs fn inside a MongoDB transaction. If the server
// reports that transactions are not supported, fn is re-run once without
// a transaction and a warning is logged.
func WithTransaction(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			logFallback(log, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		logFallback(log, err)
		return fn(ctx)
	}
	return err
}

func logFallback(log *zap.Logger, err error) {
	if log != nil {
		log.Warn("transactions unsupported by server; running without transaction",
			zap.Error(err))
	}
}

// Server error codes that indicate the deployment cannot run the
// requested transaction at all (as opposed to a transient abort).
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation (e.g. not a replica set member)
	51:  true,
	263: true, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err indicates that multi-document
// transactions are unavailable on this deployment. It recognizes the
// known server error codes and falls back to keyword matching for
// drivers/proxies that only surface message text.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if ok := asCommandError(err, &cmdErr); ok {
		return notSupportedCodes[cmdErr.Code]
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "transaction") {
		if strings.Contains(s, "replica set") ||
			strings.Contains(s, "session") ||
			strings.Contains(s, "illegal operation") {
			return true
		}
	}
	return strings.Contains(s, "session") && strings.Contains(s, "not supported")
}

func asCommandError(err error, target *mongo.CommandError) bool {
	if ce, ok := err.(mongo.CommandError); ok {
		*target = ce
		return true
	}
	return false
}
