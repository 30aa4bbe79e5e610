// SPDX-License-Identifier: BSD-3-Clause

package modulehost

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
)

// pyShim is the bridge loop run inside the python3 subprocess. It loads
// the module file given as argv[1] and evaluates one request per stdin
// line by attribute name on the loaded module object.
const pyShim = `
import importlib.util, json, sys, traceback

spec = importlib.util.spec_from_file_location("module", sys.argv[1])
mod = importlib.util.module_from_spec(spec)
spec.loader.exec_module(mod)

for line in sys.stdin:
    req = json.loads(line)
    try:
        op = req["op"]
        fn = getattr(mod, op)
        if op == "load_data":
            out = fn(req["data"])
        elif op == "event":
            out = fn(req["id"], req["state"])
        elif op == "name":
            out = fn(req["id"])
        elif op == "poll":
            out = fn(req["id"])
        elif op == "set":
            out = fn(req["id"], req["idx"], req["state"])
        else:
            raise ValueError("unknown op " + op)
        print(json.dumps({"ok": out}), flush=True)
    except Exception:
        print(json.dumps({"err": traceback.format_exc(limit=1)}), flush=True)
`

type pyRequest struct {
	Op    string          `json:"op"`
	Data  json.RawMessage `json:"data,omitempty"`
	ID    string          `json:"id,omitempty"`
	Idx   int             `json:"idx,omitempty"`
	State uint16          `json:"state,omitempty"`
}

type pyReply struct {
	OK  json.RawMessage `json:"ok"`
	Err string          `json:"err"`
}

// pythonRuntime bridges a Python module over a line-oriented
// subprocess protocol. It is only ever driven by the module's worker,
// so requests are strictly serialized.
type pythonRuntime struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// openPython starts the shim subprocess over the module file at path.
func openPython(path string) (*pythonRuntime, error) {
	cmd := exec.Command("python3", "-u", "-c", pyShim, path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadLibrary, path, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadLibrary, path, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadLibrary, path, err)
	}
	return &pythonRuntime{cmd: cmd, stdin: stdin, stdout: bufio.NewReader(stdout)}, nil
}

// call writes one request line and reads one reply line.
func (p *pythonRuntime) call(req pyRequest) (json.RawMessage, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	if _, err := p.stdin.Write(append(raw, '\n')); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	line, err := p.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	var reply pyReply
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	if reply.Err != "" {
		return nil, fmt.Errorf("%w: %s", ErrModule, reply.Err)
	}
	return reply.OK, nil
}

func (p *pythonRuntime) loadData(data json.RawMessage) (string, error) {
	out, err := p.call(pyRequest{Op: "load_data", Data: data})
	if err != nil {
		return "", err
	}
	// Modules return either a string id or an integer one.
	var s string
	if json.Unmarshal(out, &s) == nil {
		return s, nil
	}
	var n int64
	if json.Unmarshal(out, &n) == nil {
		return fmt.Sprintf("%d", n), nil
	}
	return "", fmt.Errorf("%w: load_data returned %s", ErrModule, out)
}

func (p *pythonRuntime) event(id string, state uint16) (string, error) {
	out, err := p.call(pyRequest{Op: "event", ID: id, State: state})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (p *pythonRuntime) driverName(id string) (string, error) {
	out, err := p.call(pyRequest{Op: "name", ID: id})
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(out, &s); err != nil {
		return "", fmt.Errorf("%w: name returned %s", ErrModule, out)
	}
	return s, nil
}

func (p *pythonRuntime) poll(id string) ([]uint16, error) {
	out, err := p.call(pyRequest{Op: "poll", ID: id})
	if err != nil {
		return nil, err
	}
	var states []uint16
	if err := json.Unmarshal(out, &states); err != nil {
		return nil, fmt.Errorf("%w: poll returned %s", ErrModule, out)
	}
	return states, nil
}

func (p *pythonRuntime) set(id string, idx int, state uint16) error {
	_, err := p.call(pyRequest{Op: "set", ID: id, Idx: idx, State: state})
	return err
}

func (p *pythonRuntime) close() {
	_ = p.stdin.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.cmd.Wait()
}
