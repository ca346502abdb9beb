package repo

import (
	"time"

	graphstore "github.com/duskward/loomkeeper/internal/graphstore"
	"github.com/duskward/loomkeeper/internal/domain"
)

func graphRelFromRegionRel(rel domain.RegionRelationship) graphstore.Relationship {
	return graphstore.Relationship{
		SourceID:  rel.CharacterID.String(),
		TargetID:  rel.RegionID.String(),
		RelType:   string(rel.Frequency),
		CreatedAt: time.Now(),
	}
}
