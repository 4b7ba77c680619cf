package archive

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/apkkit/internal/format"
	"github.com/joshuapare/apkkit/pkg/types"
)

func signedZip(t *testing.T) []byte {
	t.Helper()
	block := signingBlock(
		SigningBlockPair{ID: format.SigningBlockIDV2, Value: []byte("v2-signer")},
		SigningBlockPair{ID: format.SigningBlockIDPadding, Value: make([]byte, 12)},
	)
	return insertBeforeDirectory(t, buildZip(t, defaultFiles, ""), block)
}

func TestProbeSignatureFooterPresent(t *testing.T) {
	b := signedZip(t)
	src := NewBytesSource(b)
	dir, err := ReadCentralFileDirectory(src, OpenOptions{})
	require.NoError(t, err)
	require.Equal(t, len(defaultFiles), dir.Count())

	footer := dir.SignatureFooter()
	require.NotNil(t, footer)
	require.True(t, footer.IsValid())
	cdOff, _ := directoryRange(t, b)
	require.Equal(t, int64(cdOff-format.SignatureFooterMinSize), footer.Offset)

	block, err := ReadSigningBlock(src, footer)
	require.NoError(t, err)
	require.Len(t, block.Pairs, 2)
	require.Equal(t, "v2", block.Pairs[0].Name())
	require.Equal(t, []byte("v2-signer"), block.Pairs[0].Value)
	require.Equal(t, "padding", block.Pairs[1].Name())

	p, ok := block.Pair(format.SigningBlockIDV2)
	require.True(t, ok)
	require.Equal(t, []byte("v2-signer"), p.Value)
	_, ok = block.Pair(format.SigningBlockIDV3)
	require.False(t, ok)
}

func TestProbeSignatureFooterAbsent(t *testing.T) {
	dir, err := ReadCentralFileDirectory(NewBytesSource(buildZip(t, defaultFiles, "")), OpenOptions{})
	require.NoError(t, err)
	require.Nil(t, dir.SignatureFooter())

	_, err = ReadSigningBlock(NewBytesSource(nil), nil)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestProbeSignatureFooterNegativeOffset(t *testing.T) {
	// total < trailer + directory + MinSize: the probe must not read at all.
	b := buildZip(t, nil, "")
	src := &countingSource{BytesSource: NewBytesSource(b)}
	end, err := FindEndRecord(src, OpenOptions{})
	require.NoError(t, err)
	reads := src.ranges

	footer, err := probeSignatureFooter(src, end)
	require.NoError(t, err)
	require.Nil(t, footer)
	require.Equal(t, reads, src.ranges)
}

func TestSignatureFooterValidation(t *testing.T) {
	valid := func(size uint64, off int64) *SignatureFooter {
		f := &SignatureFooter{Offset: off, SizeOfBlock: size}
		copy(f.Magic[:], format.SigningBlockMagic)
		return f
	}

	require.True(t, valid(format.SignatureFooterMinSize, 100).IsValid())
	require.False(t, valid(format.SignatureFooterMinSize-1, 100).IsValid(), "size below minimum")
	require.False(t, valid(1<<40, 100).IsValid(), "block would start before the source")
	require.True(t, valid(116, 100).IsValid(), "block starts exactly at offset zero")
	require.False(t, valid(117, 100).IsValid())

	badMagic := valid(format.SignatureFooterMinSize, 100)
	badMagic.Magic[0] = 'a'
	require.False(t, badMagic.IsValid())
}

func TestProbeRejectsFooterWithWrongMagic(t *testing.T) {
	block := signingBlock(SigningBlockPair{ID: format.SigningBlockIDV2, Value: []byte("x")})
	block[len(block)-1] = '3'
	b := insertBeforeDirectory(t, buildZip(t, defaultFiles, ""), block)

	dir, err := ReadCentralFileDirectory(NewBytesSource(b), OpenOptions{})
	require.NoError(t, err)
	require.Nil(t, dir.SignatureFooter())
}

func TestSkipSignatureBlock(t *testing.T) {
	dir, err := ReadCentralFileDirectory(NewBytesSource(signedZip(t)), OpenOptions{SkipSignatureBlock: true})
	require.NoError(t, err)
	require.Nil(t, dir.SignatureFooter())
}

func TestReadSigningBlockCorruptPair(t *testing.T) {
	block := signingBlock(SigningBlockPair{ID: format.SigningBlockIDV2, Value: []byte("abcd")})
	format.PutU64(block, 8, 1000)
	b := insertBeforeDirectory(t, buildZip(t, defaultFiles, ""), block)
	src := NewBytesSource(b)

	dir, err := ReadCentralFileDirectory(src, OpenOptions{})
	require.NoError(t, err)
	require.NotNil(t, dir.SignatureFooter())

	_, err = ReadSigningBlock(src, dir.SignatureFooter())
	require.ErrorIs(t, err, types.ErrCorrupt)
}

// countingSource records every range opened through it.
type countingSource struct {
	*BytesSource
	ranges int
}

func (s *countingSource) OpenRange(off, n int64) (io.ReadCloser, error) {
	s.ranges++
	return s.BytesSource.OpenRange(off, n)
}
