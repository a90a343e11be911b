// Command ntfsreader is a thin demonstration CLI over the accessor
// stack: stat, ls, cat, usn and mft against a raw volume or disk image,
// exercising the same public surface the library exposes. It is not
// part of the library's scope (spec.md §1); it exists only as a
// harness for manual inspection.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/joeavanzato/ReadLiveNTFS/accessor"
	"github.com/joeavanzato/ReadLiveNTFS/internal/logging"
	"github.com/joeavanzato/ReadLiveNTFS/ntfsfs"
)

var log = logging.Get("cmd")

var (
	app = kingpin.New("ntfsreader", "Read-only raw NTFS volume inspector.")

	volume  = app.Flag("volume", "Path to the raw volume or disk image.").Required().String()
	driveID = app.Flag("drive", "Drive identifier used when surfacing absolute link targets.").Default("C:").String()

	statCmd  = app.Command("stat", "Print metadata for a file or directory.")
	statPath = statCmd.Arg("path", "Volume-relative path.").Required().String()

	lsCmd        = app.Command("ls", "List a directory.")
	lsPath       = lsCmd.Arg("path", "Volume-relative directory path.").Required().String()
	lsPattern    = lsCmd.Flag("pattern", "Glob pattern to filter entries.").Default("*").String()
	lsRecurse    = lsCmd.Flag("recurse", "Recurse into subdirectories.").Bool()
	lsFollowLink = lsCmd.Flag("follow-links", "Follow reparse points while listing.").Bool()

	catCmd  = app.Command("cat", "Write a file's primary stream (or :ads) to stdout.")
	catPath = catCmd.Arg("path", "Volume-relative path, optionally suffixed :adsname.").Required().String()

	usnCmd = app.Command("usn", "Stream the USN journal as tab-separated records.")
	mftCmd = app.Command("mft", "Stream MFT highlights as tab-separated records.")
)

func main() {
	switch kingpin.MustParse(app.Parse(os.Args[1:])) {
	case statCmd.FullCommand():
		exitOn(runStat())
	case lsCmd.FullCommand():
		exitOn(runLs())
	case catCmd.FullCommand():
		exitOn(runCat())
	case usnCmd.FullCommand():
		exitOn(runUSN())
	case mftCmd.FullCommand():
		exitOn(runMFT())
	}
}

func exitOn(err error) {
	if err != nil {
		log.WithField("err", err).Error("command failed")
		os.Exit(1)
	}
}

func open() (*accessor.Accessor, error) {
	return accessor.Open(*volume, *driveID)
}

func runStat() error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Dispose()

	if exists, _ := a.Exists(*statPath); exists {
		rec, err := a.FileInfo(*statPath, false)
		if err != nil {
			return err
		}
		fmt.Printf("file  %s  size=%d  attrs=0x%x  ads=%v\n", rec.FullPath, rec.Size, rec.Attributes, rec.AdsNames)
		return nil
	}

	rec, err := a.DirInfo(*statPath, false)
	if err != nil {
		return err
	}
	fmt.Printf("dir   %s  attrs=0x%x\n", rec.FullPath, rec.Attributes)
	return nil
}

func runLs() error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Dispose()

	files, err := a.ListFiles(*lsPath, *lsPattern, *lsRecurse, *lsFollowLink)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Printf("F\t%s\t%d\n", f.FullPath, f.Size)
	}

	dirs, err := a.ListDirs(*lsPath, *lsPattern, *lsRecurse, *lsFollowLink)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		fmt.Printf("D\t%s\n", d.FullPath)
	}
	return nil
}

func runCat() error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Dispose()

	stream, err := a.Open(*catPath)
	if err != nil {
		return err
	}
	defer stream.Close()

	buf := make([]byte, 1<<20)
	for {
		n, rerr := stream.Read(buf)
		if n > 0 {
			os.Stdout.Write(buf[:n])
		}
		if rerr != nil {
			break
		}
	}
	return nil
}

func runUSN() error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Dispose()

	return a.WalkUSNJournal(context.Background(), func(rec ntfsfs.USNRecord) error {
		fmt.Printf("%d\t%s\t%s\t%s\n", rec.USN, rec.Timestamp, rec.FullPath, rec.Reason)
		return nil
	})
}

func runMFT() error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Dispose()

	return a.WalkMFT(context.Background(), func(h ntfsfs.MFTHighlight) error {
		fmt.Printf("%d\t%v\t%s\t%s\n", h.EntryNumber, h.InUse, h.FileName, h.FullPath)
		return nil
	})
}
