package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceFormatExtensions(t *testing.T) {
	assert.Equal(t, "dna", FormatSnapGene.Extension())
	assert.Equal(t, "gb", FormatGenBank.Extension())
	assert.Equal(t, "fasta", FormatFASTA.Extension())
	assert.Empty(t, SequenceFormat("pdf").Extension())
}

func TestParseSequenceFormat(t *testing.T) {
	for _, want := range []SequenceFormat{FormatSnapGene, FormatGenBank, FormatFASTA} {
		got, err := ParseSequenceFormat(string(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseSequenceFormat("xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sequence format")
}
