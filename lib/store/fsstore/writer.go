package fsstore

import (
	"errors"
	"os"

	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/record"
)

// writeRecord encodes r and replaces the stored file of its primary key.
// The data is written to a hidden temporary file in the type directory and
// renamed over the stored file, so readers never observe a partial record.
func (s *Store) writeRecord(typeName string, r record.Record) error {
	pk := s.schema.PrimaryKey(typeName)
	id, ok := r.ID(pk)
	if !ok {
		return common.NewError(common.RetCInternalError, "record has no primary key "+pk)
	}
	if err := record.ValidateID(id); err != nil {
		return err
	}

	data, err := s.codec.Encode(r)
	if err != nil {
		return common.WrapError(common.RetCInternalError, "failed to encode record", s.recordPath(typeName, id), err)
	}

	path := s.recordPath(typeName, id)
	tmp, err := os.CreateTemp(s.typeDir(typeName), "."+id+".*.tmp")
	if err != nil {
		return common.WrapError(common.RetCIOError, "failed to create temporary file", path, err)
	}

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		if rmErr := os.Remove(tmp.Name()); rmErr != nil && !isNotExist(rmErr) {
			err = errors.Join(err, rmErr)
		}
		return common.WrapError(common.RetCIOError, "failed to write record", path, err)
	}

	s.metrics.writes.Inc()
	return nil
}

// removeRecord removes the stored file of a record.
// The returned bool is false if the file did not exist.
func (s *Store) removeRecord(typeName, id string) (bool, error) {
	path := s.recordPath(typeName, id)
	if err := os.Remove(path); err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, common.WrapError(common.RetCIOError, "failed to remove record", path, err)
	}
	s.metrics.deletes.Inc()
	return true, nil
}
