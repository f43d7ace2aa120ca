package cluster

import (
	"errors"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
)

var errInvalidOptions = errors.New("invalid cluster options")

func newClusterError(context string, err error) *errs.Error {
	return errs.New(errs.KindCluster, context, err)
}
