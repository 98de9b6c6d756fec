package actions

import (
	"fmt"
	"io/ioutil"
	"os"
	"webup/standby/domain"

	"github.com/fatih/color"
)

// SnapshotEngine produces a transfer-ready copy of the database volume
// while the engine keeps running. A plain file copy of a live database
// risks torn pages; the hot-backup tool shipped with the database image
// takes a physical backup and replays the redo log instead.
type SnapshotEngine struct {
	Runner domain.Runner
}

// Capture runs the two-phase snapshot into a fresh staging directory and
// returns it with a cleanup removing it again. Both phases are mandatory:
// a half-done artifact is worse than no standby, so any failure aborts
// after removing the staging state.
func (e SnapshotEngine) Capture(rc *domain.RunContext, vol domain.VolumeDescriptor) (string, func(), error) {

	staging, err := ioutil.TempDir("", "standby-db-")
	if err != nil {
		return "", nil, fmt.Errorf("unable to create the snapshot staging directory: %s", err)
	}
	cleanup := func() { os.RemoveAll(staging) }

	fmt.Printf(" %s taking a consistent snapshot of '%s'...\n", color.YellowString("▶"), vol.Name)

	// phase 1: physical backup against a read-only mount of the live volume
	backup := domain.NewCommand([]string{
		"docker", "run", "--rm",
		"--network", rc.DatabaseNetwork(),
		"-v", fmt.Sprintf("%s:/var/lib/mysql:ro", vol.Name),
		"-v", fmt.Sprintf("%s:/backup", staging),
		rc.Database.Image,
		"mariabackup", "--backup", "--rsync",
		"--target-dir=/backup",
		"--host", rc.Database.Host,
		"--user", "root",
		"--password", rc.DBRoot,
	})
	if err := e.Runner.Run(backup); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("database backup phase failed: %s", err)
	}

	// phase 2: replay the redo log so the copy is directly restorable
	prepare := domain.NewCommand([]string{
		"docker", "run", "--rm",
		"-v", fmt.Sprintf("%s:/backup", staging),
		rc.Database.Image,
		"mariabackup", "--prepare", "--target-dir=/backup",
	})
	if err := e.Runner.Run(prepare); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("database prepare phase failed: %s", err)
	}

	// the artifact must land on the standby owned by the db engine's
	// numeric identity; chown in-container so this process needs no root
	chown := domain.NewCommand([]string{
		"docker", "run", "--rm",
		"-v", fmt.Sprintf("%s:/backup", staging),
		rc.Database.Image,
		"chown", "-R", fmt.Sprintf("%d:%d", rc.Database.UID, rc.Database.GID), "/backup",
	})
	if err := e.Runner.Run(chown); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("unable to rewrite the snapshot ownership: %s", err)
	}

	return staging, cleanup, nil
}
