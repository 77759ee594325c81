package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli/v2"
)

const (
	authTokenFile = "auth.token"
	clientTimeout = 30 * time.Second
)

var (
	mpurseDataDir = btcutil.AppDataDir("mpurse-cli", false)
	statePath     = filepath.Join(mpurseDataDir, "state.json")

	defaultRPCServer     = "http://localhost:9946"
	defaultDaemonDatadir = btcutil.AppDataDir("mpursed", false)
)

func main() {
	app := cli.NewApp()

	app.Version = "0.0.1"
	app.Name = "mpurse CLI"
	app.Usage = "Command line interface for the mpursed wallet daemon"
	app.Commands = append(
		app.Commands,
		&config,
		&status,
		&genseed,
		&initwallet,
		&unlockwallet,
		&lockwallet,
		&accounts,
		&requests,
		&signtx,
		&sendtx,
		&signmessage,
		&verifymessage,
		&preferences,
		&purge,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	json.Unmarshal(file, &data)

	return data, nil
}

func setState(data map[string]string) error {
	if _, err := os.Stat(filepath.Dir(statePath)); os.IsNotExist(err) {
		os.MkdirAll(filepath.Dir(statePath), os.ModeDir|0755)
	}

	file, err := os.OpenFile(statePath, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	currentData, err := getState()
	if err != nil {
		return err
	}

	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string, 0)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

// client talks to the control interface of the daemon.
type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func getClient() (*client, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	address, ok := state["rpcserver"]
	if !ok {
		return nil, errors.New("set rpcserver with `config set rpcserver`")
	}

	var token string
	if !strings.EqualFold(state["no_auth"], "true") {
		datadir := state["datadir"]
		if datadir == "" {
			datadir = defaultDaemonDatadir
		}
		buf, err := os.ReadFile(filepath.Join(datadir, authTokenFile))
		if err != nil {
			return nil, fmt.Errorf(
				"unable to read auth token, set the daemon datadir with " +
					"`config set datadir` or disable auth with `config set no_auth true`",
			)
		}
		token = strings.TrimSpace(string(buf))
	}

	return &client{
		baseURL: strings.TrimSuffix(address, "/") + "/v1",
		token:   token,
		http:    &http.Client{Timeout: clientTimeout},
	}, nil
}

// do sends the JSON encoded body, if any, to the given route and returns
// the raw JSON response. Error responses are turned into errors.
func (c *client) do(method, route string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, c.baseURL+route, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to daemon: %w", err)
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		payload := struct {
			Error string `json:"error"`
		}{}
		if err := json.Unmarshal(buf, &payload); err == nil && payload.Error != "" {
			return nil, errors.New(payload.Error)
		}
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(buf)))
	}
	return buf, nil
}

func (c *client) get(route string) (json.RawMessage, error) {
	return c.do(http.MethodGet, route, nil)
}

func (c *client) post(route string, body interface{}) (json.RawMessage, error) {
	return c.do(http.MethodPost, route, body)
}

func (c *client) put(route string, body interface{}) (json.RawMessage, error) {
	return c.do(http.MethodPut, route, body)
}

// call is a shortcut to send a request and print the response.
func call(method, route string, body interface{}) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	resp, err := c.do(method, route, body)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func printRespJSON(resp json.RawMessage) {
	var out bytes.Buffer
	if err := json.Indent(&out, resp, "", "\t"); err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}
	fmt.Println(out.String())
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[mpurse] %v\n", err)
	}
	os.Exit(1)
}
