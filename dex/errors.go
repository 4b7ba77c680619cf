package dex

import (
	"fmt"

	"github.com/joshuapare/apkkit/internal/buf"
	"github.com/joshuapare/apkkit/pkg/types"
)

func hasBytes(b []byte, off, n int) bool { return buf.Has(b, off, n) }

func errTruncated(what string, off int) error {
	return types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt, "dex: %s at 0x%x: truncated", what, off)
}

func errCorrupt(what string, off int, err error) error {
	return &types.Error{
		Kind: types.ErrKindCorrupt,
		Msg:  fmt.Sprintf("dex: %s at 0x%x", what, off),
		Err:  fmt.Errorf("%w: %w", types.ErrCorrupt, err),
	}
}
