package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ragchat/internal/backend"
	"ragchat/internal/config"
	"ragchat/internal/keystore"
	"ragchat/internal/models"
	"ragchat/internal/store"
)

const maxUploadBytes = 50 << 20 // 50 MB

func main() {
	cfgPath := os.Getenv("RAGCHAT_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	stateDir := cfg.Client.StateDir
	if stateDir == "" {
		stateDir = "./data"
	}
	keys, err := keystore.OpenFile(filepath.Join(stateDir, "keystore.json"))
	if err != nil {
		log.Fatalf("open keystore: %v", err)
	}

	var st *store.Store
	client := backend.NewClient(
		cfg.Client.BackendURL,
		time.Duration(cfg.Client.RequestTimeout)*time.Second,
		func() string {
			if st == nil {
				return ""
			}
			return st.APIKey()
		},
	)
	st, err = store.New(client, keys)
	if err != nil {
		log.Fatalf("init store: %v", err)
	}

	ctx := context.Background()
	if err := st.Initialize(ctx); err != nil {
		fmt.Printf("warning: backend unreachable, running degraded: %v\n", err)
	} else if err := st.FetchDocuments(ctx); err != nil {
		fmt.Printf("warning: could not load documents: %v\n", err)
	}

	fmt.Println("ragchat - chat with your documents. Type /help for commands.")
	repl(ctx, st)
}

func repl(ctx context.Context, st *store.Store) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		prompt(st)
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if st.Busy() {
			fmt.Println("a request is still in flight, please wait")
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, st, line); quit {
				return
			}
			continue
		}
		send(ctx, st, line)
	}
}

func prompt(st *store.Store) {
	if doc := st.ActiveDocument(); doc != nil {
		fmt.Printf("[%s] > ", doc.Filename)
		return
	}
	fmt.Print("> ")
}

func runCommand(ctx context.Context, st *store.Store, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "/help":
		printHelp()
	case "/quit", "/exit":
		return true
	case "/docs":
		if err := st.FetchDocuments(ctx); err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		printDocuments(st)
	case "/upload":
		if len(args) != 1 {
			fmt.Println("usage: /upload <path-to-pdf>")
			break
		}
		upload(ctx, st, args[0])
	case "/use":
		if len(args) != 1 {
			fmt.Println("usage: /use <number|none>")
			break
		}
		selectDocument(st, args[0])
	case "/clear":
		st.ClearMessages()
		fmt.Println("transcript cleared")
	case "/key":
		if len(args) != 1 {
			fmt.Println("usage: /key <api-key>")
			break
		}
		if err := st.SetAPIKey(args[0]); err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		fmt.Println("api key saved")
	case "/sidebar":
		st.ToggleSidebar()
		if st.SidebarVisible() {
			printDocuments(st)
		} else {
			fmt.Println("sidebar hidden")
		}
	case "/test":
		resp, err := st.TestAIConnectivity(ctx)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		fmt.Printf("ai: %s\n", resp)
	default:
		fmt.Printf("unknown command %s, try /help\n", cmd)
	}
	return false
}

// checkUploadable enforces the UI-layer rules: PDFs only, at most 50 MB.
// Rejections here happen before the store or the network is ever touched.
func checkUploadable(path string, size int64) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return errors.New("only PDF files can be uploaded")
	}
	if size > maxUploadBytes {
		return errors.New("file exceeds the 50 MB upload limit")
	}
	return nil
}

func upload(ctx context.Context, st *store.Store, path string) {
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if err := checkUploadable(path, info.Size()); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	defer f.Close()

	if err := st.UploadDocument(ctx, filepath.Base(path), f); err != nil {
		fmt.Printf("upload failed: %v\n", err)
		return
	}
	fmt.Println("uploaded; processing will begin shortly")
	printDocuments(st)
}

func selectDocument(st *store.Store, arg string) {
	if arg == "none" {
		st.SelectDocument(nil)
		fmt.Println("no document selected")
		return
	}
	idx, err := strconv.Atoi(arg)
	docs := st.Documents()
	if err != nil || idx < 1 || idx > len(docs) {
		fmt.Println("pick a document number from /docs")
		return
	}
	st.SelectDocument(&docs[idx-1])
	fmt.Printf("chatting with %s\n", docs[idx-1].Filename)
}

func send(ctx context.Context, st *store.Store, text string) {
	before := len(st.Messages())
	if err := st.SendMessage(ctx, text); err != nil {
		fmt.Printf("error: %v\n", err)
	}
	for _, msg := range st.Messages()[before:] {
		printMessage(msg)
	}
}

func printMessage(msg models.ChatMessage) {
	switch msg.Kind {
	case models.KindUser:
		// the user already sees their own input line
	case models.KindAssistant:
		fmt.Println(msg.Content)
		for _, src := range msg.Sources {
			fmt.Printf("  [page %d] %s\n", src.Page, src.Text)
		}
		for _, vis := range msg.Visuals {
			fmt.Printf("  [%s] %s\n", vis.Type, vis.Caption)
		}
	case models.KindError:
		fmt.Println(msg.Content)
	}
}

func printDocuments(st *store.Store) {
	docs := st.Documents()
	if len(docs) == 0 {
		fmt.Println("no documents uploaded yet")
		return
	}
	active := st.ActiveDocument()
	for i, doc := range docs {
		marker := " "
		if active != nil && active.ID == doc.ID {
			marker = "*"
		}
		fmt.Printf("%s %2d. %s (%s)\n", marker, i+1, doc.Filename, doc.ProcessingStatus)
	}
}

func printHelp() {
	fmt.Println(`commands:
  /docs            refresh and list uploaded documents
  /upload <path>   upload a PDF (max 50 MB)
  /use <n|none>    chat with document n, or clear the selection
  /clear           clear the transcript
  /key <value>     set the backend API key
  /sidebar         toggle the document sidebar
  /test            test AI connectivity
  /quit            exit`)
}
