package blockstore

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/popdata"
	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/utils/testutils"
	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/db/database"
	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/db/database/ldb"
	"github.com/davecgh/go-spew/spew"
)

func prepareDatabaseForTest(t *testing.T, testName string) (db database.Database, teardownFunc func()) {
	path, err := ioutil.TempDir("", testName)
	if err != nil {
		t.Fatalf("%s: TempDir unexpectedly failed: %s", testName, err)
	}
	levelDB, err := ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("%s: NewLevelDB unexpectedly failed: %s", testName, err)
	}
	teardownFunc = func() {
		err = levelDB.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
		os.RemoveAll(path)
	}
	return levelDB, teardownFunc
}

func testPopData() *externalapi.PopData {
	vbkGenesis := testutils.NewGenesisHeader(100)
	vbkBlock := testutils.NewHeader(vbkGenesis.Hash(), 101)
	btcBlock := testutils.NewGenesisHeader(200)

	vtbEndorsement := popdata.NewEndorsement(vbkGenesis.Hash(), 0, vbkBlock.Hash(), btcBlock.Hash())
	atvEndorsement := popdata.NewEndorsement(&externalapi.DomainHash{0x01}, -1, &externalapi.DomainHash{0x02},
		vbkBlock.Hash())
	return &externalapi.PopData{
		VBKBlocks: []externalapi.BlockHeader{vbkBlock},
		VTBs:      []*externalapi.VTB{popdata.NewVTB(vtbEndorsement, []externalapi.BlockHeader{btcBlock})},
		ATVs:      []*externalapi.ATV{popdata.NewATV(atvEndorsement, nil)},
	}
}

func storedBlocksEqual(a, b *model.StoredBlock) bool {
	if a.Height != b.Height || a.Status != b.Status || a.RefCount != b.RefCount {
		return false
	}
	if !a.Header.Hash().Equal(b.Header.Hash()) || a.Header.TimeInSeconds() != b.Header.TimeInSeconds() {
		return false
	}
	if len(a.PayloadIDs) != len(b.PayloadIDs) {
		return false
	}
	for i := range a.PayloadIDs {
		if a.PayloadIDs[i] != b.PayloadIDs[i] {
			return false
		}
	}
	if (a.PopData == nil) != (b.PopData == nil) {
		return false
	}
	if a.PopData == nil {
		return true
	}
	idsA, idsB := a.PopData.PayloadIDs(), b.PopData.PayloadIDs()
	if len(idsA) != len(idsB) {
		return false
	}
	for i := range idsA {
		if idsA[i] != idsB[i] {
			return false
		}
	}
	for i := range a.PopData.VTBs {
		if !a.PopData.VTBs[i].Endorsement.Equal(b.PopData.VTBs[i].Endorsement) {
			return false
		}
	}
	for i := range a.PopData.ATVs {
		if !a.PopData.ATVs[i].Endorsement.Equal(b.PopData.ATVs[i].Endorsement) {
			return false
		}
	}
	return true
}

func TestBlockStoreRoundTrip(t *testing.T) {
	db, teardownFunc := prepareDatabaseForTest(t, "TestBlockStoreRoundTrip")
	defer teardownFunc()

	genesis := testutils.NewGenesisHeader(0)
	child := testutils.NewHeader(genesis.Hash(), 1)
	popData := testPopData()
	blocks := []*model.StoredBlock{
		{
			Height:   0,
			Header:   genesis,
			Status:   model.StatusHeaderKnown | model.StatusConnected | model.StatusBootstrap | model.StatusActive,
			RefCount: 0,
		},
		{
			Height:     1,
			Header:     child,
			Status:     model.StatusHeaderKnown | model.StatusHasPayloads | model.StatusFailedPop,
			RefCount:   2,
			PayloadIDs: popData.PayloadIDs(),
			PopData:    popData,
		},
	}

	store := New(db, "alt")
	err := store.SaveBlocks(blocks)
	if err != nil {
		t.Fatalf("TestBlockStoreRoundTrip: SaveBlocks unexpectedly failed: %s", err)
	}
	err = store.SaveTip(child.Hash())
	if err != nil {
		t.Fatalf("TestBlockStoreRoundTrip: SaveTip unexpectedly failed: %s", err)
	}

	loaded, err := store.LoadBlocks()
	if err != nil {
		t.Fatalf("TestBlockStoreRoundTrip: LoadBlocks unexpectedly failed: %s", err)
	}
	if len(loaded) != len(blocks) {
		t.Fatalf("TestBlockStoreRoundTrip: expected %d blocks, got %d", len(blocks), len(loaded))
	}
	for i := range blocks {
		if !storedBlocksEqual(blocks[i], loaded[i]) {
			t.Fatalf("TestBlockStoreRoundTrip: block %d differs. Expected:\n%s\ngot:\n%s",
				i, spew.Sdump(blocks[i]), spew.Sdump(loaded[i]))
		}
	}

	tip, err := store.LoadTip()
	if err != nil {
		t.Fatalf("TestBlockStoreRoundTrip: LoadTip unexpectedly failed: %s", err)
	}
	if !tip.Equal(child.Hash()) {
		t.Fatalf("TestBlockStoreRoundTrip: expected tip %s, got %s", child.Hash(), tip)
	}
}

func TestBlockStoreSaveReplacesBlocks(t *testing.T) {
	db, teardownFunc := prepareDatabaseForTest(t, "TestBlockStoreSaveReplacesBlocks")
	defer teardownFunc()

	genesis := testutils.NewGenesisHeader(0)
	chain := testutils.ChainHeaders(genesis, 3, 1)
	store := New(db, "vbk")

	first := []*model.StoredBlock{{Height: 0, Header: genesis}}
	for i, header := range chain {
		first = append(first, &model.StoredBlock{Height: int32(i + 1), Header: header})
	}
	err := store.SaveBlocks(first)
	if err != nil {
		t.Fatalf("TestBlockStoreSaveReplacesBlocks: SaveBlocks unexpectedly failed: %s", err)
	}
	err = store.SaveBlocks(first[:2])
	if err != nil {
		t.Fatalf("TestBlockStoreSaveReplacesBlocks: SaveBlocks unexpectedly failed: %s", err)
	}

	loaded, err := store.LoadBlocks()
	if err != nil {
		t.Fatalf("TestBlockStoreSaveReplacesBlocks: LoadBlocks unexpectedly failed: %s", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("TestBlockStoreSaveReplacesBlocks: expected 2 blocks, got %s", spew.Sdump(loaded))
	}
	if !loaded[1].Header.Hash().Equal(chain[0].Hash()) {
		t.Fatalf("TestBlockStoreSaveReplacesBlocks: unexpected second block %s", loaded[1].Header.Hash())
	}
}

func TestBlockStoreTreesAreSeparate(t *testing.T) {
	db, teardownFunc := prepareDatabaseForTest(t, "TestBlockStoreTreesAreSeparate")
	defer teardownFunc()

	btcStore := New(db, "btc")
	vbkStore := New(db, "vbk")
	err := btcStore.SaveBlocks([]*model.StoredBlock{{Height: 0, Header: testutils.NewGenesisHeader(7)}})
	if err != nil {
		t.Fatalf("TestBlockStoreTreesAreSeparate: SaveBlocks unexpectedly failed: %s", err)
	}

	blocks, err := vbkStore.LoadBlocks()
	if err != nil {
		t.Fatalf("TestBlockStoreTreesAreSeparate: LoadBlocks unexpectedly failed: %s", err)
	}
	if len(blocks) != 0 {
		t.Fatalf("TestBlockStoreTreesAreSeparate: vbk store sees btc blocks: %s", spew.Sdump(blocks))
	}
	tip, err := vbkStore.LoadTip()
	if err != nil {
		t.Fatalf("TestBlockStoreTreesAreSeparate: LoadTip unexpectedly failed: %s", err)
	}
	if tip != nil {
		t.Fatalf("TestBlockStoreTreesAreSeparate: expected no tip, got %s", tip)
	}
}

func TestDeserializeCorruptedBlock(t *testing.T) {
	block := &model.StoredBlock{Height: 3, Header: testutils.NewGenesisHeader(3), PopData: testPopData()}
	serialized := serializeStoredBlock(block)

	_, err := deserializeStoredBlock(serialized[:len(serialized)-1])
	if err == nil {
		t.Fatalf("TestDeserializeCorruptedBlock: expected an error for a truncated row")
	}
	_, err = deserializeStoredBlock(nil)
	if err == nil {
		t.Fatalf("TestDeserializeCorruptedBlock: expected an error for a row with no header")
	}
}
