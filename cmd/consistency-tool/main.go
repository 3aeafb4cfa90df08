// Command consistency-tool inspects and repairs a standalone
// consistency-map bbolt file, one bucket per anonymization rule name
// plus the reserved "_counters" bucket (see pkg/consistency/persist.go).
// Adapted from cmd/warren-migrate's dry-run-by-default,
// backup-before-mutating shape: by default the tool only reports what
// it finds; --repair is required to actually mutate the file, and a
// backup is always taken first unless --no-backup is set.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	bolt "go.etcd.io/bbolt"
)

var (
	dbPath   = flag.String("db-path", "", "Path to the consistency-map bbolt file (required)")
	repair   = flag.Bool("repair", false, "Delete corrupt counter entries found during inspection")
	noBackup = flag.Bool("no-backup", false, "Skip taking a backup before --repair mutates the file")
	backupTo = flag.String("backup", "", "Backup destination (default: <db-path>.backup)")
)

const counterBucketName = "_counters"

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if *dbPath == "" {
		log.Fatal("missing required flag: --db-path")
	}
	if _, err := os.Stat(*dbPath); os.IsNotExist(err) {
		log.Fatalf("consistency map not found at %s", *dbPath)
	}

	log.Printf("Consistency Map Tool")
	log.Printf("====================")
	log.Printf("Database: %s", *dbPath)
	log.Printf("Mode: %s", modeLabel())

	if *repair && !*noBackup {
		backupFile := *backupTo
		if backupFile == "" {
			backupFile = *dbPath + ".backup"
		}
		log.Printf("Creating backup: %s", backupFile)
		if err := copyFile(*dbPath, backupFile); err != nil {
			log.Fatalf("failed to create backup: %v", err)
		}
		log.Println("backup created")
	}

	db, err := bolt.Open(*dbPath, 0o600, nil)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	report, err := inspect(db)
	if err != nil {
		log.Fatalf("inspection failed: %v", err)
	}
	printReport(report)

	if !*repair {
		log.Println("\nRun with --repair to delete the corrupt entries listed above.")
		return
	}

	if len(report.corruptCounters) == 0 {
		log.Println("\nNothing to repair.")
		return
	}

	if err := repairCorruptCounters(db, report.corruptCounters); err != nil {
		log.Fatalf("repair failed: %v", err)
	}
	log.Printf("\nRepair complete: removed %d corrupt counter entries. A rule whose counter was removed\nresumes token numbering from TOKEN_00000001 on its next assignment.", len(report.corruptCounters))
}

func modeLabel() string {
	if *repair {
		return "repair"
	}
	return "inspect (read-only)"
}

type inspectionReport struct {
	ruleNames       []string
	entriesPerRule  map[string]int
	counters        map[string]uint64
	corruptCounters []string
}

// inspect walks every bucket in the database, reporting mapping counts
// per rule and any counter bucket entry that isn't the 8-byte
// big-endian uint64 persist.go always writes.
func inspect(db *bolt.DB) (inspectionReport, error) {
	report := inspectionReport{entriesPerRule: map[string]int{}, counters: map[string]uint64{}}

	err := db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			bucketName := string(name)
			if bucketName == counterBucketName {
				return b.ForEach(func(k, v []byte) error {
					if len(v) != 8 {
						report.corruptCounters = append(report.corruptCounters, string(k))
						return nil
					}
					report.counters[string(k)] = binary.BigEndian.Uint64(v)
					return nil
				})
			}

			report.ruleNames = append(report.ruleNames, bucketName)
			count := 0
			if err := b.ForEach(func(k, v []byte) error {
				count++
				return nil
			}); err != nil {
				return err
			}
			report.entriesPerRule[bucketName] = count
			return nil
		})
	})
	if err != nil {
		return report, err
	}

	sort.Strings(report.ruleNames)
	return report, nil
}

func printReport(r inspectionReport) {
	fmt.Println()
	fmt.Println("Rule buckets:")
	for _, name := range r.ruleNames {
		counter, hasCounter := r.counters[name]
		if hasCounter {
			fmt.Printf("  %-30s %6d mappings, next token ordinal %d\n", name, r.entriesPerRule[name], counter+1)
		} else {
			fmt.Printf("  %-30s %6d mappings, no token counter\n", name, r.entriesPerRule[name])
		}
	}
	if len(r.corruptCounters) > 0 {
		fmt.Println("\nCorrupt counter entries (not 8 bytes, cannot be a valid uint64):")
		for _, name := range r.corruptCounters {
			fmt.Printf("  %s\n", name)
		}
	}
}

// repairCorruptCounters deletes every counter entry inspect flagged as
// malformed. A rule whose counter is removed simply restarts its token
// sequence from 1 on next assignment; this never invalidates existing
// TOKEN_######## mappings, which are looked up by original value, not by
// ordinal.
func repairCorruptCounters(db *bolt.DB, ruleNames []string) error {
	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(counterBucketName))
		if b == nil {
			return nil
		}
		for _, name := range ruleNames {
			if err := b.Delete([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
