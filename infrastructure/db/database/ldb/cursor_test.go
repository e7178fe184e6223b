package ldb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/db/database"
)

type cursorRow struct {
	key   string
	value string
}

// collectRows reads every row a fresh cursor on bucket visits, in order.
func collectRows(t *testing.T, testName string, db *LevelDB, bucket *database.Bucket) []cursorRow {
	cursor, err := db.Cursor(bucket)
	if err != nil {
		t.Fatalf("%s: Cursor: %s", testName, err)
	}
	defer cursor.Close()

	var rows []cursorRow
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			t.Fatalf("%s: Key: %s", testName, err)
		}
		value, err := cursor.Value()
		if err != nil {
			t.Fatalf("%s: Value of %s: %s", testName, key, err)
		}
		rows = append(rows, cursorRow{key: string(key.Suffix()), value: string(value)})
	}
	return rows
}

func TestCursorSanity(t *testing.T) {
	ldb, teardownFunc := prepareDatabaseForTest(t, "TestCursorSanity")
	defer teardownFunc()

	vbkBlocks := database.MakeBucket([]byte("vbk-blocks"))
	for height := 0; height < 10; height++ {
		err := ldb.Put(vbkBlocks.Key([]byte(fmt.Sprintf("h%02d", height))), []byte(fmt.Sprintf("vbk block %d", height)))
		if err != nil {
			t.Fatalf("TestCursorSanity: Put: %s", err)
		}
	}
	// Rows of a sibling bucket sharing the prefix must not be visited
	err := ldb.Put(database.MakeBucket([]byte("vbk-blocks2")).Key([]byte("h00")), []byte("other"))
	if err != nil {
		t.Fatalf("TestCursorSanity: Put: %s", err)
	}

	rows := collectRows(t, "TestCursorSanity", ldb, vbkBlocks)
	if len(rows) != 10 {
		t.Fatalf("TestCursorSanity: expected 10 rows, got %d: %v", len(rows), rows)
	}
	for height, row := range rows {
		expected := cursorRow{key: fmt.Sprintf("h%02d", height), value: fmt.Sprintf("vbk block %d", height)}
		if row != expected {
			t.Fatalf("TestCursorSanity: row %d: expected %v, got %v", height, expected, row)
		}
	}

	cursor, err := ldb.Cursor(vbkBlocks)
	if err != nil {
		t.Fatalf("TestCursorSanity: Cursor: %s", err)
	}
	defer cursor.Close()

	err = cursor.Seek(vbkBlocks.Key([]byte("h07")))
	if err != nil {
		t.Fatalf("TestCursorSanity: Seek: %s", err)
	}
	value, err := cursor.Value()
	if err != nil {
		t.Fatalf("TestCursorSanity: Value: %s", err)
	}
	if string(value) != "vbk block 7" {
		t.Fatalf("TestCursorSanity: expected %q after Seek, got %q", "vbk block 7", value)
	}

	err = cursor.Seek(vbkBlocks.Key([]byte("h071")))
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestCursorSanity: Seek to a missing key returned unexpected error: %v", err)
	}
}

func TestCursorEmptyBucket(t *testing.T) {
	ldb, teardownFunc := prepareDatabaseForTest(t, "TestCursorEmptyBucket")
	defer teardownFunc()

	cursor, err := ldb.Cursor(database.MakeBucket([]byte("btc-blocks")))
	if err != nil {
		t.Fatalf("TestCursorEmptyBucket: Cursor: %s", err)
	}
	defer cursor.Close()

	if cursor.First() {
		t.Fatalf("TestCursorEmptyBucket: First found a row in an empty bucket")
	}
	_, err = cursor.Key()
	if !database.IsNotFoundError(err) {
		t.Fatalf("TestCursorEmptyBucket: Key of an exhausted cursor returned unexpected error: %v", err)
	}
}

func TestCursorCloseErrors(t *testing.T) {
	ldb, teardownFunc := prepareDatabaseForTest(t, "TestCursorCloseErrors")
	defer teardownFunc()

	cursor, err := ldb.Cursor(database.MakeBucket([]byte("alt-blocks")))
	if err != nil {
		t.Fatalf("TestCursorCloseErrors: Cursor: %s", err)
	}
	err = cursor.Close()
	if err != nil {
		t.Fatalf("TestCursorCloseErrors: Close: %s", err)
	}

	if cursor.Close() == nil {
		t.Fatalf("TestCursorCloseErrors: closing twice unexpectedly succeeded")
	}
	if _, err := cursor.Key(); err == nil {
		t.Fatalf("TestCursorCloseErrors: Key of a closed cursor unexpectedly succeeded")
	}
	if _, err := cursor.Value(); err == nil {
		t.Fatalf("TestCursorCloseErrors: Value of a closed cursor unexpectedly succeeded")
	}
	if cursor.Seek(database.MakeBucket(nil).Key([]byte("x"))) == nil {
		t.Fatalf("TestCursorCloseErrors: Seek on a closed cursor unexpectedly succeeded")
	}

	defer func() {
		panicErr := recover()
		if panicErr == nil || !strings.Contains(fmt.Sprint(panicErr), "closed cursor") {
			t.Fatalf("TestCursorCloseErrors: expected a closed cursor panic, got: %v", panicErr)
		}
	}()
	cursor.Next()
}
