package compile

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"rook/internal/source"
)

// LoadRoots reads the root files concurrently and adds them to fs in the
// order of paths. The file set itself is only touched after every read has
// finished. The first read failure cancels the rest.
func LoadRoots(ctx context.Context, fs *source.FileSet, paths []string, jobs int) ([]*source.File, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// каждая горутина пишет только в свой индекс
	contents := make([][]byte, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// #nosec G304 -- roots are chosen by the user
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read root %s: %w", path, err)
			}
			contents[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make([]*source.File, len(paths))
	for i, path := range paths {
		files[i] = fs.Get(fs.AddRaw(path, contents[i]))
	}
	return files, nil
}
