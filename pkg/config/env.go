package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cuemby/districtmig/pkg/migerr"
)

// Role identifies which environment a store credential set belongs to.
type Role string

const (
	RoleProd Role = "PROD"
	RoleCert Role = "CERT"
)

// RelationalCredentials holds one store's connection parameters, read from
// {ROLE}_{STORE}_{HOST|PORT|DATABASE|USER|PASSWORD}.
type RelationalCredentials struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// DSN renders credentials as a libpq connection string for pgx.
func (c RelationalCredentials) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=prefer",
		c.Host, c.Port, c.Database, c.User, c.Password)
}

// GraphCredentials holds the neo4j driver's bolt URI and basic-auth pair,
// read from NEO4J_{ROLE}_{URI|USER|PASSWORD}.
type GraphCredentials struct {
	URI      string
	User     string
	Password string
}

// Store is the immutable, process-wide configuration loaded once at phase
// start: credentials for every named relational store plus the graph
// store, and the anonymization salt. Nothing in this package mutates a
// Store after Load returns it.
type Store struct {
	Relational map[string]RelationalCredentials
	Graph      GraphCredentials
	Salt       string
}

// Load reads credentials for the given relational store names and role
// from the environment, plus the graph store credentials for the same
// role. requireSalt should be true only when loading configuration for the
// anonymization phase; ANONYMIZATION_SALT is otherwise optional.
func Load(role Role, relationalStores []string, requireSalt bool) (*Store, error) {
	cfg := &Store{
		Relational: make(map[string]RelationalCredentials, len(relationalStores)),
	}

	for _, store := range relationalStores {
		creds, err := loadRelational(role, store)
		if err != nil {
			return nil, err
		}
		cfg.Relational[store] = creds
	}

	graph, err := loadGraph(role)
	if err != nil {
		return nil, err
	}
	cfg.Graph = graph

	if requireSalt {
		salt, ok := os.LookupEnv("ANONYMIZATION_SALT")
		if !ok || salt == "" {
			return nil, &migerr.Config{Msg: "ANONYMIZATION_SALT is not set"}
		}
		cfg.Salt = salt
	} else {
		cfg.Salt = os.Getenv("ANONYMIZATION_SALT")
	}

	return cfg, nil
}

func loadRelational(role Role, store string) (RelationalCredentials, error) {
	prefix := fmt.Sprintf("%s_%s_", role, strings.ToUpper(store))

	host, err := requireEnv(prefix + "HOST")
	if err != nil {
		return RelationalCredentials{}, err
	}
	portStr, err := requireEnv(prefix + "PORT")
	if err != nil {
		return RelationalCredentials{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return RelationalCredentials{}, &migerr.Config{Msg: fmt.Sprintf("%sPORT is not a valid port number", prefix), Err: err}
	}
	database, err := requireEnv(prefix + "DATABASE")
	if err != nil {
		return RelationalCredentials{}, err
	}
	user, err := requireEnv(prefix + "USER")
	if err != nil {
		return RelationalCredentials{}, err
	}
	password, err := requireEnv(prefix + "PASSWORD")
	if err != nil {
		return RelationalCredentials{}, err
	}

	return RelationalCredentials{
		Host:     host,
		Port:     port,
		Database: database,
		User:     user,
		Password: password,
	}, nil
}

func loadGraph(role Role) (GraphCredentials, error) {
	prefix := fmt.Sprintf("NEO4J_%s_", role)

	uri, err := requireEnv(prefix + "URI")
	if err != nil {
		return GraphCredentials{}, err
	}
	user, err := requireEnv(prefix + "USER")
	if err != nil {
		return GraphCredentials{}, err
	}
	password, err := requireEnv(prefix + "PASSWORD")
	if err != nil {
		return GraphCredentials{}, err
	}

	return GraphCredentials{URI: uri, User: user, Password: password}, nil
}

func requireEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", &migerr.Config{Msg: fmt.Sprintf("required environment variable %s is not set", key)}
	}
	return v, nil
}
