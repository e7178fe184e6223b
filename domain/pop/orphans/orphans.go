package orphans

import (
	"time"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/ruleerrors"
	"github.com/pkg/errors"
)

// orphanHeader represents a header that we don't yet have the parent for. It
// is a normal header plus an expiration time to prevent caching the orphan
// forever.
type orphanHeader struct {
	header     externalapi.BlockHeader
	expiration time.Time
}

// Pool holds headers whose parent is unknown until the parent arrives. It is
// not safe for concurrent use.
type Pool struct {
	maxOrphans   int
	expiration   time.Duration
	orphans      map[externalapi.DomainHash]*orphanHeader
	prevOrphans  map[externalapi.DomainHash][]*orphanHeader
	newestOrphan *orphanHeader

	now func() time.Time
}

// New instantiates a new Pool holding up to maxOrphans headers, each for at
// most expiration.
func New(maxOrphans int, expiration time.Duration) *Pool {
	return &Pool{
		maxOrphans:  maxOrphans,
		expiration:  expiration,
		orphans:     make(map[externalapi.DomainHash]*orphanHeader),
		prevOrphans: make(map[externalapi.DomainHash][]*orphanHeader),
		now:         time.Now,
	}
}

// Len returns the number of orphans in the pool.
func (p *Pool) Len() int {
	return len(p.orphans)
}

// IsKnownOrphan returns whether the passed hash is currently a known orphan.
// Keep in mind that only a limited number of orphans are held onto for a
// limited amount of time, so this function must not be used as an absolute
// way to test if a header is an orphan.
func (p *Pool) IsKnownOrphan(hash *externalapi.DomainHash) bool {
	_, exists := p.orphans[*hash]
	return exists
}

// MissingAncestor returns the hash of the unknown block the orphan chain of
// orphanHash hangs from.
func (p *Pool) MissingAncestor(orphanHash *externalapi.DomainHash) *externalapi.DomainHash {
	current := orphanHash
	for {
		orphan, ok := p.orphans[*current]
		if !ok {
			return current
		}
		current = orphan.header.PreviousHash()
	}
}

// Add adds header, whose parent is unknown, to the pool. It lazily cleans up
// expired orphans, and if the pool is full it evicts the newest orphan unless
// header is newer still, in which case header is rejected.
func (p *Pool) Add(header externalapi.BlockHeader) error {
	hash := header.Hash()
	if p.IsKnownOrphan(hash) {
		return nil
	}

	now := p.now()
	p.newestOrphan = nil
	for _, orphan := range p.orphans {
		if now.After(orphan.expiration) {
			log.Debugf("Orphan %s expired", orphan.header.Hash())
			p.remove(orphan)
			continue
		}

		// Update the newest orphan pointer so it can be discarded
		// in case the orphan pool fills up.
		if p.newestOrphan == nil || orphan.header.TimeInSeconds() > p.newestOrphan.header.TimeInSeconds() {
			p.newestOrphan = orphan
		}
	}

	if len(p.orphans)+1 > p.maxOrphans {
		if p.newestOrphan == nil || header.TimeInSeconds() > p.newestOrphan.header.TimeInSeconds() {
			return errors.Wrapf(ruleerrors.ErrOrphanPoolFull, "orphan pool is full, dropping %s", hash)
		}
		log.Debugf("Orphan pool is full, evicting %s", p.newestOrphan.header.Hash())
		p.remove(p.newestOrphan)
		p.newestOrphan = nil
	}

	orphan := &orphanHeader{
		header:     header,
		expiration: now.Add(p.expiration),
	}
	p.orphans[*hash] = orphan
	prevHash := *header.PreviousHash()
	p.prevOrphans[prevHash] = append(p.prevOrphans[prevHash], orphan)
	log.Tracef("Added orphan %s with parent %s", hash, prevHash)
	return nil
}

// remove removes orphan from the pool and from the previous orphan index.
func (p *Pool) remove(orphan *orphanHeader) {
	hash := orphan.header.Hash()
	delete(p.orphans, *hash)

	prevHash := *orphan.header.PreviousHash()
	siblings := p.prevOrphans[prevHash]
	for i := 0; i < len(siblings); i++ {
		if siblings[i].header.Hash().Equal(hash) {
			siblings = append(siblings[:i], siblings[i+1:]...)
			i--
		}
	}
	if len(siblings) == 0 {
		delete(p.prevOrphans, prevHash)
		return
	}
	p.prevOrphans[prevHash] = siblings
}

// ProcessOrphans hands every orphan that descends from hash to accept, parents
// before children, and removes it from the pool. Orphans rejected with a rule
// error are dropped, and their own orphans stay in the pool until they expire.
// Any other error stops the processing and is returned.
func (p *Pool) ProcessOrphans(hash *externalapi.DomainHash,
	accept func(header externalapi.BlockHeader) error) ([]externalapi.BlockHeader, error) {

	var accepted []externalapi.BlockHeader
	processHashes := []externalapi.DomainHash{*hash}
	for len(processHashes) > 0 {
		processHash := processHashes[0]
		processHashes = processHashes[1:]

		// An indexing for loop is used since the slice shrinks as
		// orphans are removed.
		for len(p.prevOrphans[processHash]) > 0 {
			orphan := p.prevOrphans[processHash][0]
			orphanHash := orphan.header.Hash()
			p.remove(orphan)

			err := accept(orphan.header)
			if err != nil {
				if !ruleerrors.IsRuleError(err) {
					return accepted, err
				}
				log.Warnf("Verification failed for orphan header %s: %s", orphanHash, err)
				continue
			}
			accepted = append(accepted, orphan.header)
			processHashes = append(processHashes, *orphanHash)
		}
	}
	return accepted, nil
}
