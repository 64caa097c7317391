// main.go --  This file is part of goVPT project.
//
//	goVPT is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"govpt/model"
	"govpt/pt"
)

var loggers *pt.Loggers

func initLog(fname string) {
	file, err := os.OpenFile(fname, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}
	loggers = pt.NewLoggers(file)
}

func appInfo() {
	loggers.Output.Print("\n" +
		"                _   _ ____ _____\n" +
		"  __ _  ___    | | | |  _ \\_   _|   vibrational perturbation theory\n" +
		" / _` |/ _ \\   | | | | |_) || |     to arbitrary order\n" +
		"| (_| | (_) |  \\ \\_/ /  __/ | |\n" +
		" \\__, |\\___/    \\___/|_|    |_|\n" +
		" |___/\n\n")
}

func printOutputDelimiter() {
	loggers.Output.Println(strings.Repeat("-", 70))
}

func echoInput(fname string) {
	loggers.Output.Println("Input file content:")
	printOutputDelimiter()
	file, err := os.Open(fname)
	if err != nil {
		loggers.Error.Println("Cannot read input file: ", err)
		return
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		loggers.Output.Println(scanner.Text())
	}
	printOutputDelimiter()
}

func memDebug() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	loggers.Output.Printf("Alloc: %d bytes", memStats.Alloc)
	loggers.Output.Printf("TotalAlloc: %d bytes", memStats.TotalAlloc)
	loggers.Output.Printf("HeapAlloc: %d bytes", memStats.HeapAlloc)
	loggers.Output.Printf("HeapSys: %d bytes", memStats.HeapSys)
}

func main() {
	var inpFname, outFname string
	if len(os.Args) > 1 {
		inpFname = os.Args[1]
		splitInpFname := strings.Split(inpFname, ".")
		fExt := splitInpFname[len(splitInpFname)-1]
		outFname = inpFname[0:(len(inpFname)-len(fExt))] + "out"
		fmt.Println("Output file: ", outFname)
	} else {
		log.Fatal("No input file.")
	}

	initLog(outFname)

	loggers.Info.Println("Starting goVPT...")
	appInfo()
	echoInput(inpFname)

	cfg, err := model.LoadFile(inpFname)
	if err != nil {
		loggers.Error.Fatal(err)
	}
	if cfg.Title != "" {
		loggers.Output.Println("Job: " + cfg.Title)
	}

	par := pt.NewParallelizer()
	targets, hams, opts, err := cfg.Build(loggers, par)
	if err != nil {
		loggers.Error.Fatal(err)
	}
	if opts.Checkpoint != nil {
		defer opts.Checkpoint.Close()
	}

	solver, err := pt.NewSolver(targets, hams, opts)
	if err != nil {
		loggers.Error.Fatal(err)
	}

	start := time.Now()
	corrs, err := solver.Run()
	if err != nil {
		loggers.Error.Fatal(err)
	}
	loggers.Output.Println("Total run time: ", time.Since(start))
	printOutputDelimiter()

	loggers.Output.Println("Final energies:")
	total := corrs.TotalEnergies()
	for i := 0; i < corrs.States.Len(); i++ {
		sum := 0.0
		for _, e := range corrs.Energies[i] {
			sum += e
		}
		line := fmt.Sprintf("%-16s  E = %18.10f", corrs.States.State(i), total[i])
		if corrs.IsDegenerate() {
			line += fmt.Sprintf("  (unrotated %18.10f)", sum)
		}
		loggers.Output.Println(line)
		fmt.Println(line)
	}
	printOutputDelimiter()

	memDebug()
	loggers.Info.Println("Exiting goVPT...")
	fmt.Println("goVPT done.")
}
