package actions

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"webup/standby/domain"
	"webup/standby/remote"

	"github.com/fatih/color"
	"github.com/jhoonb/archivex"
)

// vanishedFilesStatus is the sync tool's "some files vanished during
// traversal" result. Expected on a live source, never fatal.
const vanishedFilesStatus = 24

// TransferEngine moves a directory's contents to the same path on the
// standby host, under the configured transfer mode. One call either ends
// with the remote path in its new state or fails the run; there is no
// partial-success return.
type TransferEngine struct {
	Runner domain.Runner
	Remote remote.Executor
	Mode   domain.TransferMode
}

// Transfer mirrors src into dest on the remote host.
func (t TransferEngine) Transfer(src string, dest string, report *RunReport) error {

	if err := t.prepareDestination(dest); err != nil {
		return err
	}

	if t.Mode == domain.ModeArchive {
		return t.archive(src, dest, report)
	}
	return t.Mirror(src, dest, report)
}

// prepareDestination ensures the remote directory exists, retrying with
// elevated privileges: restricted deployment accounts often cannot write
// outside their home tree.
func (t TransferEngine) prepareDestination(dest string) error {
	if err := t.Remote.RunElevated("mkdir", "-p", dest); err != nil {
		return fmt.Errorf("unable to prepare the remote directory '%s': %s", dest, err)
	}
	return nil
}

// archive compresses the source, copies the tarball over and extracts it
// remotely, into a cleared destination so the result mirrors the source.
// Local and remote staging artifacts are removed on every path.
func (t TransferEngine) archive(src string, dest string, report *RunReport) error {

	stagingDir, err := ioutil.TempDir("", "standby-archive-")
	if err != nil {
		return fmt.Errorf("unable to create a local staging directory: %s", err)
	}
	defer os.RemoveAll(stagingDir)

	tarball := filepath.Join(stagingDir, "volume.tar.gz")

	tar := new(archivex.TarFile)
	if err := tar.Create(tarball); err != nil {
		return fmt.Errorf("unable to create the archive: %s", err)
	}
	if err := tar.AddAll(src, false); err != nil {
		tar.Close()
		return fmt.Errorf("unable to archive '%s': %s", src, err)
	}
	if err := tar.Close(); err != nil {
		return fmt.Errorf("unable to finalize the archive: %s", err)
	}

	remoteTarball := fmt.Sprintf("/tmp/standby-%s.tar.gz", filepath.Base(stagingDir))

	if err := t.Remote.CopyFile(tarball, remoteTarball); err != nil {
		// a partial upload may exist
		t.Remote.Run("rm", "-f", remoteTarball)
		return fmt.Errorf("unable to copy the archive to the standby: %s", err)
	}

	// extraction alone cannot delete extraneous destination files, so the
	// directory is cleared first; only then is the result a mirror of the
	// source. The tarball is already safely on the remote side.
	if err := t.Remote.RunElevated("find", dest, "-mindepth", "1", "-delete"); err != nil {
		t.Remote.Run("rm", "-f", remoteTarball)
		return fmt.Errorf("unable to clear the remote directory '%s': %s", dest, err)
	}

	if err := t.Remote.Run("tar", "-xzf", remoteTarball, "-C", dest); err != nil {
		t.Remote.Run("rm", "-f", remoteTarball)
		return fmt.Errorf("unable to extract the archive into '%s': %s", dest, err)
	}

	if err := t.Remote.Run("rm", "-f", remoteTarball); err != nil {
		// the data already landed; a leftover staging tarball only degrades
		warning := fmt.Sprintf("unable to remove the remote archive '%s'", remoteTarball)
		fmt.Printf(" %s %s\n", color.YellowString("⚠"), warning)
		report.Warnings = append(report.Warnings, warning)
	}

	return nil
}

// Mirror runs the incremental sync, deleting extraneous destination files
// and preserving hardlinks and attributes.
func (t TransferEngine) Mirror(src string, dest string, report *RunReport) error {

	cmd := domain.NewCommand([]string{
		"rsync", "-aH", "--delete",
		"-e", t.Remote.RemoteShell(),
		src + "/",
		t.Remote.Dest(dest + "/"),
	})

	err := t.Runner.Run(cmd)
	if domain.ExitStatus(err) == vanishedFilesStatus {
		warning := fmt.Sprintf("some files vanished while syncing '%s' (live source)", src)
		fmt.Printf(" %s %s\n", color.YellowString("⚠"), warning)
		report.Warnings = append(report.Warnings, warning)
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to sync '%s' to the standby: %s", src, err)
	}

	return nil
}
