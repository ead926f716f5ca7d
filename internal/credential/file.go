package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/utafrali/coursehub/pkg/errors"
)

// DefaultFileName is the credentials file created under the user config dir.
const DefaultFileName = "credentials.json"

// DefaultFilePath returns <user config dir>/coursehub/credentials.json.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(dir, "coursehub", DefaultFileName), nil
}

// FileStore keeps the pair in a single JSON file on the local disk, so a
// session outlives the process that created it. Every write lands in a temp
// file next to the target and is renamed over it; readers in this or any
// other process see either the old pair or the new one.
type FileStore struct {
	path string

	// serializes writers within the process
	mu sync.Mutex
}

// NewFileStore creates the parent directory (0700) if needed. The file
// itself is created by the first SetTokens.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, apperrors.InvalidInput(errors.New("credential file path is empty"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, apperrors.Persistence("file create dir", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the credentials file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) SetTokens(_ context.Context, access, refresh string) error {
	if access == "" {
		return apperrors.InvalidInput(ErrEmptyAccessToken)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(Pair{AccessToken: access, RefreshToken: refresh}); err != nil {
		return apperrors.Persistence("file set tokens", err)
	}
	return nil
}

func (s *FileStore) write(p Pair) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	err = os.Rename(tmpName, s.path)
	return err
}

func (s *FileStore) read() (Pair, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Pair{}, nil
	}
	if err != nil {
		return Pair{}, apperrors.Persistence("file read tokens", err)
	}
	var p Pair
	if err := json.Unmarshal(data, &p); err != nil {
		return Pair{}, apperrors.Persistence("file decode tokens", err)
	}
	return p, nil
}

func (s *FileStore) AccessToken(context.Context) (string, bool, error) {
	p, err := s.read()
	if err != nil {
		return "", false, err
	}
	return p.AccessToken, p.AccessToken != "", nil
}

func (s *FileStore) RefreshToken(context.Context) (string, bool, error) {
	p, err := s.read()
	if err != nil {
		return "", false, err
	}
	return p.RefreshToken, p.RefreshToken != "", nil
}

// Tokens returns both values from a single read of the file.
func (s *FileStore) Tokens(context.Context) (Pair, error) {
	return s.read()
}

// ClearTokens removes the file. A missing file is not an error.
func (s *FileStore) ClearTokens(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.Persistence("file clear tokens", err)
	}
	return nil
}

// Ping checks the directory is still there and the file, if any, decodes.
func (s *FileStore) Ping(context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return apperrors.Persistence("file ping", err)
	}
	if !info.IsDir() {
		return apperrors.Persistence("file ping", fmt.Errorf("%s is not a directory", filepath.Dir(s.path)))
	}
	_, err = s.read()
	return err
}
