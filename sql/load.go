package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed descriptions.sql
var descriptionsSQL string

//go:embed runs.sql
var runsSQL string

// Function lists for verification
var DescriptionsFunctions = []string{
	"init_descriptions",
	"upsert_description",
	"select_description",
	"select_all_descriptions",
	"select_descriptions_by_similarity",
	"delete_description",
}

var RunsFunctions = []string{
	"init_runs",
	"insert_run",
	"select_run",
	"select_all_runs",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadDescriptionsSql loads description-related SQL functions
func LoadDescriptionsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, DescriptionsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing descriptions functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(descriptionsSQL)
	if err != nil {
		return fmt.Errorf("error executing descriptions SQL: %w", err)
	}

	exist, err := checkFunctions(db, DescriptionsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL descriptions functions loaded successfully")
	return nil
}

// LoadRunsSql loads run-report-related SQL functions
func LoadRunsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, RunsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing runs functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(runsSQL)
	if err != nil {
		return fmt.Errorf("error executing runs SQL: %w", err)
	}

	exist, err := checkFunctions(db, RunsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL runs functions loaded successfully")
	return nil
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadDescriptionsSql(db, force); err != nil {
		return err
	}

	if err := LoadRunsSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
