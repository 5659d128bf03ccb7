// Copyright 2021 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hotstore

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	benchTable     *Table
	benchTableOnce sync.Once
	benchHashmap   map[Address][]byte
	benchEntries   []Address
)

func loadBenchTable() {
	dir, err := os.MkdirTemp("", "hotstore-bench")
	if err != nil {
		panic(err)
	}
	var lines bytes.Buffer
	for _, acct := range genAccounts(rand.New(rand.NewSource(42)), 100000, 64) {
		lines.Write(acct.AppendText(nil))
		lines.WriteByte('\n')
	}

	var expected map[Address]Account
	benchTable, expected, err = openTestFile(&lines, filepath.Join(dir, "bench.hot"))
	if err != nil {
		panic(err)
	}

	benchHashmap = make(map[Address][]byte)
	benchEntries = make([]Address, 0, len(expected))
	for addr, acct := range expected {
		benchEntries = append(benchEntries, addr)
		// attempt to ensure the hashmap doesn't share memory with our test oracle
		benchHashmap[addr] = bytes.Clone(acct.Data)
	}
}

func genAccounts(rng *rand.Rand, n, nOwners int) []Account {
	owners := make([]Address, nOwners)
	for i := range owners {
		_, _ = rng.Read(owners[i][:])
	}

	accounts := make([]Account, n)
	for i := range accounts {
		acct := Account{
			Owner:   owners[rng.Intn(nOwners)],
			Balance: uint64(rng.Int63n(1 << 40)),
			Data:    make([]byte, rng.Intn(200)),
		}
		_, _ = rng.Read(acct.Address[:])
		_, _ = rng.Read(acct.Data)
		if i%3 == 0 {
			epoch := uint64(rng.Intn(1000))
			acct.RentEpoch = &epoch
		}
		accounts[i] = acct
	}
	return accounts
}

// openTestFile builds a table at path from the account lines read from r.
func openTestFile(r io.Reader, path string) (*Table, map[Address]Account, error) {
	builder, err := NewBuilder(path)
	if err != nil {
		return nil, nil, err
	}

	known := make(map[Address]Account)

	s := bufio.NewScanner(bufio.NewReaderSize(r, 16*1024))
	for s.Scan() {
		acct, err := ParseAccount(s.Bytes())
		if err != nil {
			_ = builder.Discard()
			return nil, nil, err
		}
		if err := builder.Put(acct); err != nil {
			_ = builder.Discard()
			return nil, nil, err
		}
		known[acct.Address] = acct
	}
	if err := s.Err(); err != nil {
		_ = builder.Discard()
		return nil, nil, err
	}

	if err := builder.Finalize(); err != nil {
		return nil, nil, err
	}
	table, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	return table, known, nil
}

func testFile(t testing.TB, r io.Reader) {
	path := filepath.Join(t.TempDir(), "accounts.hot")
	table, known, err := openTestFile(r, path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, table.Close())
	}()
	require.Equal(t, len(known), table.Len())

	for addr, expected := range known {
		acct, ok := table.Get(addr)
		require.True(t, ok)
		require.Equal(t, expected.Owner, acct.Owner)
		require.Equal(t, expected.Balance, acct.Balance)
		require.Equal(t, expected.RentEpoch, acct.RentEpoch)
		require.Equal(t, expected.Data, acct.Data)
	}

	for _, negative := range []Address{{}, {0xff, 0xfe}} {
		// we shouldn't find accounts that don't exist
		_, ok := table.Get(negative)
		require.False(t, ok)
	}

	report, err := table.Verify()
	require.NoError(t, err)
	require.Equal(t, len(known), report.Accounts)
	require.True(t, report.Checksummed)
}

func TestTableSmall(t *testing.T) {
	var lines bytes.Buffer
	for _, acct := range genAccounts(rand.New(rand.NewSource(1)), 500, 7) {
		lines.Write(acct.AppendText(nil))
		lines.WriteByte('\n')
	}
	testFile(t, &lines)
}

func TestTableLarge(t *testing.T) {
	dataFile := "testdata.large"
	f, err := os.Open(dataFile)
	if err != nil {
		t.Skip("testdata.large doesn't exist, skipping large test")
		return
	}
	defer func() {
		_ = f.Close()
	}()
	testFile(t, f)
}

func buildTable(t *testing.T, accounts []Account) *Table {
	t.Helper()

	path := filepath.Join(t.TempDir(), "accounts.hot")
	b, err := NewBuilder(path)
	require.NoError(t, err)
	for _, acct := range accounts {
		require.NoError(t, b.Put(acct))
	}
	require.NoError(t, b.Finalize())

	table, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, table.Close())
	})
	return table
}

func TestTableAtAndAll(t *testing.T) {
	accounts := genAccounts(rand.New(rand.NewSource(2)), 40, 3)
	accounts[5].Executable = true
	accounts[6].Hash = &Hash{1, 2, 3}
	table := buildTable(t, accounts)

	for i, expected := range accounts {
		acct, err := table.At(i)
		require.NoError(t, err)
		assert.Equal(t, expected.Address, acct.Address)
		assert.Equal(t, expected.Executable, acct.Executable)
		assert.Equal(t, expected.Hash, acct.Hash)
		assert.Equal(t, expected.Data, acct.Data)
	}

	_, err := table.At(len(accounts))
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = table.At(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	i := 0
	require.NoError(t, table.All(func(acct Account) bool {
		assert.Equal(t, accounts[i].Address, acct.Address)
		i++
		return true
	}))
	assert.Equal(t, len(accounts), i)

	f := table.Footer()
	assert.Equal(t, uint32(len(accounts)), f.AccountEntryCount)
}

func TestTableMatchOwners(t *testing.T) {
	owner := Address{9}
	decoy := Address{8}
	table := buildTable(t, []Account{
		{Address: Address{1}, Owner: owner, Balance: 10},
		{Address: Address{2}, Owner: owner, Balance: 0},
		{Address: Address{3}, Owner: decoy, Balance: 10},
	})

	pos, err := table.MatchOwners(0, []Address{decoy, owner})
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	// zero balance accounts never match
	_, err = table.MatchOwners(1, []Address{decoy, owner})
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = table.MatchOwners(2, []Address{owner})
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = table.MatchOwners(3, []Address{owner})
	assert.ErrorIs(t, err, ErrUnableToLoad)
}

func TestBuilderRefusesExistingPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.hot")
	require.NoError(t, os.WriteFile(path, []byte("precious"), 0644))

	_, err := NewBuilder(path)
	assert.ErrorIs(t, err, fs.ErrExist)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(contents))
}

func TestBuilderResultIsReadOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.hot")
	b, err := NewBuilder(path)
	require.NoError(t, err)
	require.NoError(t, b.Put(Account{Address: Address{1}, Balance: 1}))
	require.NoError(t, b.Finalize())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0444), info.Mode().Perm())

	// only the result remains; the temporary file is gone
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.Error(t, b.Finalize())
	assert.Error(t, b.Put(Account{Address: Address{2}}))
}

func TestBuilderFinalizeDoesNotClobber(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.hot")
	b, err := NewBuilder(path)
	require.NoError(t, err)
	require.NoError(t, b.Put(Account{Address: Address{1}, Balance: 1}))

	// someone else creates the target while we build
	require.NoError(t, os.WriteFile(path, []byte("precious"), 0644))

	err = b.Finalize()
	assert.ErrorIs(t, err, fs.ErrExist)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(contents))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "accounts.hot", entries[0].Name())
}

func TestBuilderDuplicateAddress(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBuilder(filepath.Join(dir, "accounts.hot"))
	require.NoError(t, err)

	require.NoError(t, b.Put(Account{Address: Address{1}}))
	err = b.Put(Account{Address: Address{1}})
	assert.True(t, errors.Is(err, ErrDuplicateAddress))

	require.NoError(t, b.Discard())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseAccount(t *testing.T) {
	epoch := uint64(17)
	expected := Account{
		Address:   Address{1, 2, 3},
		Owner:     Address{4, 5, 6},
		Balance:   123456789,
		RentEpoch: &epoch,
		Data:      []byte{0xde, 0xad, 0xbe, 0xef},
	}
	line := expected.AppendText(nil)

	acct, err := ParseAccount(line)
	require.NoError(t, err)
	assert.Equal(t, expected, acct)

	expected.RentEpoch = nil
	expected.Data = []byte{}
	acct, err = ParseAccount(expected.AppendText(nil))
	require.NoError(t, err)
	assert.Nil(t, acct.RentEpoch)
	assert.Empty(t, acct.Data)

	zero := Address{}.String()
	for _, bad := range []string{
		"",
		"a:b",
		zero + ":" + zero + ":1:2",
		zero + ":" + zero + ":1:2:00:extra",
		zero + ":" + zero + ":x:2:00",
		zero + ":" + zero + ":1:y:00",
		zero + ":" + zero + ":1:2:zz",
		"0OIl:" + zero + ":1:2:00",
	} {
		_, err := ParseAccount([]byte(bad))
		assert.Error(t, err, "%q", bad)
	}
}

func BenchmarkTable(b *testing.B) {
	benchTableOnce.Do(loadBenchTable)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := i % len(benchEntries)
		addr := benchEntries[j]
		acct, ok := benchTable.Get(addr)
		if !ok || !bytes.Equal(acct.Data, benchHashmap[addr]) {
			b.Fatal("bad data or lookup")
		}
	}
}

func BenchmarkHashmap(b *testing.B) {
	benchTableOnce.Do(loadBenchTable)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := i % len(benchEntries)
		_, ok := benchHashmap[benchEntries[j]]
		if !ok {
			b.Fatal("bad data or lookup")
		}
	}
}
