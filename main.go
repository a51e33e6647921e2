/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/ecopia-map/pcstreamer/internal/config"
	"github.com/ecopia-map/pcstreamer/internal/ooc"
	"github.com/ecopia-map/pcstreamer/internal/storage"
	"github.com/ecopia-map/pcstreamer/pkg"
	"github.com/ecopia-map/pcstreamer/pkg/algorithm_manager"
	"github.com/ecopia-map/pcstreamer/tools"
)

const VERSION = "0.4.0"

const logo = `
                 _
  _ __   ___ ___| |_ _ __ ___  __ _ _ __ ___   ___ _ __
 | '_ \ / __/ __| __| '__/ _ \/ _  | '_   _ \ / _ \ '__|
 | |_) | (__\__ \ |_| | |  __/ (_| | | | | | |  __/ |
 | .__/ \___|___/\__|_|  \___|\__,_|_| |_| |_|\___|_|
 |_|  An out of core point cloud octree streamer written in golang
      Copyright YYYY
`

func main() {
	flagsGlobal := tools.ParseFlagsGlobal()
	defer glog.Flush()

	if *flagsGlobal.Help {
		showHelp()
		return
	}
	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		glog.Fatal("Please specify a subcommand [index|stream|verify].")
	}
	cmd, err := config.ParseCommand(args[0])
	if err != nil {
		glog.Fatal(err)
	}
	args = args[1:]

	switch cmd {
	case config.CommandIndex:
		mainCommandIndex(args)
	case config.CommandStream:
		mainCommandStream(args)
	case config.CommandVerify:
		mainCommandVerify(args)
	}
}

func mainCommandIndex(args []string) {
	flags := tools.ParseFlagsForCommandIndex(args)

	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if *flags.LogTimestamp {
		tools.EnableLoggerTimestamp()
	} else {
		tools.DisableLoggerTimestamp()
	}

	opts, err := flags.IndexOptions()
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}
	if msg, res := validateOptionsForCommandIndex(&opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	defer timeTrack(time.Now(), "indexing")
	indexer := pkg.NewIndexer(tools.NewStandardFileFinder(), algorithm_manager.NewAlgorithmManager(&opts))
	manifests, err := indexer.RunIndexer(&opts)
	if err != nil {
		glog.Fatal("Error while indexing: ", err)
	}
	tools.LogOutput("Indexing completed,", len(manifests), "octrees written to", opts.Output)
}

// Validates the input options provided to the command line tool checking
// that the input exists and creating the output folder if needed
func validateOptionsForCommandIndex(opts *config.IndexOptions) (string, bool) {
	if err := opts.Validate(); err != nil {
		return err.Error(), false
	}
	info, err := os.Stat(opts.Input)
	if os.IsNotExist(err) {
		return "Input file/folder not found", false
	}
	if err == nil && opts.FolderProcessing != info.IsDir() {
		return "Input must be a folder when folder processing is enabled, a las file otherwise", false
	}
	if err := tools.CreateDirectoryIfDoesNotExist(opts.Output); err != nil {
		return err.Error(), false
	}
	return "", true
}

func mainCommandStream(args []string) {
	flags := tools.ParseFlagsForCommandStream(args)
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}

	opts, err := flags.StreamOptions()
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}
	if msg, res := validateOctreeFolder(opts.Input); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	report, err := pkg.NewStreamer(storage.NewOSStorage(opts.Input), nil).Run(&opts)
	if err != nil {
		glog.Fatal("Error while streaming: ", err)
	}
	fmt.Println(report.Table())
	if report.LiveBuffersAfterDelete != 0 {
		glog.Errorf("%d GPU buffers leaked", report.LiveBuffersAfterDelete)
	}
}

func mainCommandVerify(args []string) {
	flags := tools.ParseFlagsForCommandVerify(args)
	if *flags.Silent {
		tools.DisableLogger()
	}

	opts, err := flags.VerifyOptions()
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}
	if msg, res := validateOctreeFolder(opts.Input); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	report, err := pkg.NewVerifier(storage.NewOSStorage(opts.Input)).Run(&opts)
	if err != nil {
		glog.Fatal("Error while verifying: ", err)
	}
	fmt.Println(report.Table())
	if !report.OK() {
		for _, problem := range report.Problems {
			fmt.Println(problem)
		}
		glog.Fatalf("%d broken octants, %d of them malformed", len(report.Problems), report.FormatProblems())
	}
	tools.LogOutput("Verification completed")
}

// Checks that the folder holds an octree manifest
func validateOctreeFolder(folder string) (string, bool) {
	if folder == "" {
		return "input folder is required", false
	}
	if _, err := os.Stat(filepath.Join(folder, ooc.ManifestFile)); os.IsNotExist(err) {
		return "No " + ooc.ManifestFile + " found in " + folder, false
	}
	return "", true
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("pcstreamer indexes LAS files into out of core octrees and streams them with a point budget")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Usage: pcstreamer [global flags] index|stream|verify [command flags]")
	fmt.Println("Global flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
	fmt.Println("Run a command with -help to list its flags.")
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
