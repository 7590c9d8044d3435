/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gositeplan/internal/domain"
)

const AssetsDirName = "assets"

// AssetAbsPath resolves a project-relative asset reference to an absolute path.
func AssetAbsPath(ph *ProjectHandle, ref string) string {
	return filepath.Join(ph.Root, filepath.FromSlash(ref))
}

// ImportAsset copies an external file into the project's assets folder and
// registers it in the manifest. Returns the project-relative reference using
// forward slashes, the form image elements store in ImageRef. Name collisions
// get a numeric suffix instead of overwriting.
func ImportAsset(ph *ProjectHandle, srcPath string) (string, error) {
	if ph == nil {
		return "", errors.New("nil ProjectHandle")
	}
	if strings.TrimSpace(srcPath) == "" {
		return "", errors.New("source path is required")
	}
	if _, err := os.Stat(srcPath); err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}
	adir := filepath.Join(ph.Root, AssetsDirName)
	if err := os.MkdirAll(adir, 0o755); err != nil {
		return "", fmt.Errorf("ensure assets dir: %w", err)
	}

	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := base
	for i := 1; ; i++ {
		err := copyFileExcl(srcPath, filepath.Join(adir, name))
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("copy asset: %w", err)
		}
		name = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}

	ref := AssetsDirName + "/" + name
	ph.Project.Assets = append(ph.Project.Assets, domain.Asset{Type: "image", Path: ref})
	return ref, nil
}

// copyFileExcl copies src to a new file at dst, failing with os.ErrExist when
// dst is already taken. The exclusive create doubles as the collision probe.
func copyFileExcl(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// AssetExists reports whether the referenced file is present on disk.
func AssetExists(ph *ProjectHandle, ref string) bool {
	if ph == nil || strings.TrimSpace(ref) == "" {
		return false
	}
	fi, err := os.Stat(AssetAbsPath(ph, ref))
	return err == nil && !fi.IsDir()
}
