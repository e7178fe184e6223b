package orphans

import (
	"testing"
	"time"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/ruleerrors"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/blockheader"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/testutils"
	"github.com/pkg/errors"
)

func TestProcessOrphans(t *testing.T) {
	pool := New(10, time.Hour)
	genesis := testutils.NewGenesisHeader(0)
	chain := testutils.ChainHeaders(genesis, 4, 1)

	// Headers arrive in reverse order, all but the first of the chain.
	for i := len(chain) - 1; i >= 1; i-- {
		err := pool.Add(chain[i])
		if err != nil {
			t.Fatalf("TestProcessOrphans: Add: %+v", err)
		}
	}
	if !pool.IsKnownOrphan(chain[3].Hash()) || pool.Len() != 3 {
		t.Fatalf("TestProcessOrphans: expected 3 orphans, got %d", pool.Len())
	}
	if missing := pool.MissingAncestor(chain[3].Hash()); !missing.Equal(chain[0].Hash()) {
		t.Fatalf("TestProcessOrphans: expected missing ancestor %s, got %s", chain[0].Hash(), missing)
	}

	var order []*externalapi.DomainHash
	accepted, err := pool.ProcessOrphans(chain[0].Hash(), func(header externalapi.BlockHeader) error {
		order = append(order, header.Hash())
		return nil
	})
	if err != nil {
		t.Fatalf("TestProcessOrphans: ProcessOrphans: %+v", err)
	}
	if len(accepted) != 3 || pool.Len() != 0 {
		t.Fatalf("TestProcessOrphans: expected every orphan to be accepted, got %d (%d left)",
			len(accepted), pool.Len())
	}
	for i, hash := range order {
		if !hash.Equal(chain[i+1].Hash()) {
			t.Fatalf("TestProcessOrphans: orphans were not accepted parents first")
		}
	}
}

func TestProcessOrphansRuleError(t *testing.T) {
	pool := New(10, time.Hour)
	chain := testutils.ChainHeaders(testutils.NewGenesisHeader(0), 3, 1)
	for _, header := range chain[1:] {
		err := pool.Add(header)
		if err != nil {
			t.Fatalf("TestProcessOrphansRuleError: Add: %+v", err)
		}
	}

	accepted, err := pool.ProcessOrphans(chain[0].Hash(), func(header externalapi.BlockHeader) error {
		return errors.Wrapf(ruleerrors.ErrBadHeader, "rejecting %s", header.Hash())
	})
	if err != nil {
		t.Fatalf("TestProcessOrphansRuleError: a rule error stopped the processing: %+v", err)
	}
	if len(accepted) != 0 {
		t.Fatalf("TestProcessOrphansRuleError: rejected orphans were reported as accepted")
	}
	if pool.IsKnownOrphan(chain[1].Hash()) || !pool.IsKnownOrphan(chain[2].Hash()) {
		t.Fatalf("TestProcessOrphansRuleError: unexpected pool content")
	}

	_, err = pool.ProcessOrphans(chain[1].Hash(), func(header externalapi.BlockHeader) error {
		return errors.New("disk failure")
	})
	if err == nil || ruleerrors.IsRuleError(err) {
		t.Fatalf("TestProcessOrphansRuleError: expected the non rule error to be returned, got %v", err)
	}
}

func TestOrphanPoolLimits(t *testing.T) {
	pool := New(2, time.Minute)
	now := time.Unix(1000, 0)
	pool.now = func() time.Time { return now }

	header := func(timestamp int64, nonce uint64) externalapi.BlockHeader {
		return blockheader.NewImmutableBlockHeader(1, &externalapi.DomainHash{byte(nonce)},
			&externalapi.DomainHash{}, timestamp, 1, nonce)
	}
	old := header(10, 1)
	newer := header(20, 2)
	newest := header(30, 3)
	older := header(5, 4)

	for _, h := range []externalapi.BlockHeader{old, newer} {
		err := pool.Add(h)
		if err != nil {
			t.Fatalf("TestOrphanPoolLimits: Add: %+v", err)
		}
	}

	err := pool.Add(newest)
	if !errors.Is(err, ruleerrors.ErrOrphanPoolFull) {
		t.Fatalf("TestOrphanPoolLimits: expected ErrOrphanPoolFull, got %v", err)
	}

	err = pool.Add(older)
	if err != nil {
		t.Fatalf("TestOrphanPoolLimits: Add: %+v", err)
	}
	if pool.IsKnownOrphan(newer.Hash()) || !pool.IsKnownOrphan(older.Hash()) || pool.Len() != 2 {
		t.Fatalf("TestOrphanPoolLimits: the newest orphan was not evicted for an older one")
	}

	now = now.Add(2 * time.Minute)
	err = pool.Add(newest)
	if err != nil {
		t.Fatalf("TestOrphanPoolLimits: Add: %+v", err)
	}
	if pool.Len() != 1 || !pool.IsKnownOrphan(newest.Hash()) {
		t.Fatalf("TestOrphanPoolLimits: expired orphans were not cleaned up, %d left", pool.Len())
	}
}
