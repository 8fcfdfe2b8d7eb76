package index

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
	"github.com/sondhan-search/sondhan/internal/store"
)

func largeCorpus(n int) []*store.Document {
	docs := make([]*store.Document, n)
	for i := range docs {
		docs[i] = tdoc(
			fmt.Sprintf("doc-%04d", i),
			"common",
			fmt.Sprintf("term-%d", i%17),
			fmt.Sprintf("term-%d", i%5),
		)
	}
	return docs
}

func TestBuilder_MatchesSequentialBuild(t *testing.T) {
	docs := largeCorpus(200)

	sequential := New("en")
	require.NoError(t, sequential.Build(docs))

	for _, workers := range []int{1, 2, 4, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			parallel, err := NewBuilder(workers).Build(context.Background(), "en", docs)
			require.NoError(t, err)

			require.Equal(t, sequential.Vocabulary(), parallel.Vocabulary())
			for _, term := range sequential.Vocabulary() {
				assert.Equal(t, sequential.Postings(term), parallel.Postings(term), "term %q", term)
			}
			assert.Equal(t, sequential.DocumentCount(), parallel.DocumentCount())
			assert.Equal(t, sequential.AvgDocLength(), parallel.AvgDocLength())
		})
	}
}

func TestBuilder_EmptyInput(t *testing.T) {
	ix, err := NewBuilder(4).Build(context.Background(), "en", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ix.DocumentCount())
}

func TestBuilder_DuplicateAcrossShards(t *testing.T) {
	docs := largeCorpus(50)
	docs = append(docs, tdoc("doc-0001", "dup"))

	_, err := NewBuilder(4).Build(context.Background(), "en", docs)
	require.Error(t, err)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeDuplicateID))
}

func TestBuilder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(2).Build(ctx, "en", largeCorpus(100))
	assert.ErrorIs(t, err, context.Canceled)
}
