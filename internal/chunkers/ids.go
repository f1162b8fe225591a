package chunkers

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

// ChunkID derives a deterministic chunk id from the owning file hash,
// the strategy identifier, and the ordinal index. Content is not part
// of the derivation, so overlap text shared by adjacent chunks cannot
// collide ids, and re-running the same strategy on unchanged input
// reproduces the same id set exactly.
func ChunkID(fileHash, strategy string, index int) string {
	name := fmt.Sprintf("%s:%s:%d", fileHash, strategy, index)
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}

// Materialize assigns ids and ownership to chunker drafts.
func Materialize(drafts []domain.ChunkDraft, fileHash, corpusID, strategy string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(drafts))
	for i, d := range drafts {
		chunks[i] = domain.Chunk{
			ID:       ChunkID(fileHash, strategy, d.Index),
			FileHash: fileHash,
			CorpusID: corpusID,
			Index:    d.Index,
			Content:  d.Content,
			Metadata: d.Metadata,
		}
	}
	return chunks
}
