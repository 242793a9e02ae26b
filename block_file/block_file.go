package block_file

import (
	"os"

	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/db2700"
)

const InvalidBlockID = -1

// BlockFile is a table's data file viewed as a sequence of BlockSize blocks.
type BlockFile struct {
	Path      string
	File      *os.File
	NumBlocks int32
}

func OpenBlockFile(path string) (*BlockFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening block file %v", path)
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "stat block file %v", path)
	}
	if stat.Size()%db2700.BlockSize != 0 {
		_ = f.Close()
		return nil, errors.Newf(
			"%v has size %d, which is not a multiple of %d",
			path,
			stat.Size(),
			db2700.BlockSize)
	}
	return &BlockFile{
		Path:      path,
		File:      f,
		NumBlocks: int32(stat.Size() / db2700.BlockSize),
	}, nil
}

// Returns blockID of the newly allocated block; it's guaranteed that the next
// blockID will be the current value of bf.NumBlocks.
func (bf *BlockFile) AllocateBlock() (int32, error) {
	blockID := bf.NumBlocks
	err := bf.File.Truncate(int64(blockID+1) * db2700.BlockSize)
	if err != nil {
		return InvalidBlockID, errors.Wrapf(err, "extending %v", bf.Path)
	}
	bf.NumBlocks++
	return blockID, nil
}

func (bf *BlockFile) checkBlock(b []byte, blockID int32) error {
	if blockID < 0 || blockID >= bf.NumBlocks {
		return errors.Newf("blockID must be in [0, %d); got %d", bf.NumBlocks, blockID)
	}
	if len(b) != db2700.BlockSize {
		return errors.Newf("len(b) must be %d; got %d", db2700.BlockSize, len(b))
	}
	return nil
}

func (bf *BlockFile) ReadBlock(b []byte, blockID int32) error {
	err := bf.checkBlock(b, blockID)
	if err != nil {
		return err
	}
	_, err = bf.File.ReadAt(b, int64(blockID)*db2700.BlockSize)
	if err != nil {
		return errors.Wrapf(err, "reading block %d of %v", blockID, bf.Path)
	}
	return nil
}

func (bf *BlockFile) WriteBlock(b []byte, blockID int32) error {
	err := bf.checkBlock(b, blockID)
	if err != nil {
		return err
	}
	_, err = bf.File.WriteAt(b, int64(blockID)*db2700.BlockSize)
	if err != nil {
		return errors.Wrapf(err, "writing block %d of %v", blockID, bf.Path)
	}
	return nil
}

func (bf *BlockFile) Sync() error {
	return bf.File.Sync()
}

func (bf *BlockFile) Close() error {
	return bf.File.Close()
}
