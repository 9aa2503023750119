// FILE: lixenwraith/settings/example/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/lixenwraith/settings"
)

// VideoSettings holds the display options shown in the video menu.
type VideoSettings struct {
	Scale  float64 `setting:"graphics/display,render_scale,default=1,min=0.5,max=2,decimals=2"`
	FPSCap int     `setting:"graphics/display,fps_cap,default=60,min=30,max=240"`
	VSync  bool    `setting:"graphics/display,vsync,default=true"`
	Shadow string  `setting:"graphics/quality,shadows,default=medium"`
}

// AudioSettings holds the mixer options shown in the audio menu.
type AudioSettings struct {
	Master int `setting:"audio,master_volume,default=80,min=0,max=100"`
	Music  int `setting:"audio,music_volume,default=60,min=0,max=100"`
}

var (
	video      = &VideoSettings{Scale: 1, FPSCap: 60, VSync: true, Shadow: "medium"}
	audio      = &AudioSettings{Master: 80, Music: 60}
	playerName = "player"
)

func init() {
	game := settings.Namespace("game")
	settings.AddVar(game, "Video", &video, `settings:"entry=Video"`)
	settings.AddVar(game, "Audio", &audio, `settings:"menu=Audio"`)
	settings.AddVar(game, "PlayerName", &playerName, `setting:"profile,player_name,default=player"`)
	settings.Register(game)
}

const settingsFilePath = "game_settings.toml"

func main() {
	// =========================================================================
	// PART 1: INITIAL SETUP
	// Write a settings file with a profile table for the program to read.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 1: Creating initial settings file...")

	defer func() {
		log.Println("---")
		log.Println("🧹 Cleaning up...")
		os.Remove(settingsFilePath)
		os.Unsetenv("GAME_AUDIO_MUSIC_VOLUME")
		log.Printf("Removed %s and unset GAME_AUDIO_MUSIC_VOLUME.", settingsFilePath)
	}()

	initial := `
[game]
player_name = "ada"

[game.Video]
render_scale = 1.25
fps_cap = 144

[game.Audio]
master_volume = 70
music_volume = 40
`
	if err := os.WriteFile(settingsFilePath, []byte(initial), 0644); err != nil {
		log.Fatalf("❌ Failed during initial file creation: %v", err)
	}
	log.Printf("✅ Initial settings saved to %s.", settingsFilePath)

	// =========================================================================
	// PART 2: BUILDING THE REGISTRY
	// Discovery, source precedence and validation in one chain.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 2: Building the registry...")

	os.Setenv("GAME_AUDIO_MUSIC_VOLUME", "55")
	log.Println("   (Set environment variable GAME_AUDIO_MUSIC_VOLUME=55)")

	notifier := settings.NewNotifier(nil)
	notifier.Subscribe(func(m settings.Message) {
		fmt.Printf("   📣 [%s] %s\n", m.Severity, m.Text)
	})

	validator := func(r *settings.Registry) error {
		fps, err := settings.GetAs[int](r, "Video/fps_cap")
		if err != nil {
			return err
		}
		if fps%2 != 0 {
			return fmt.Errorf("fps cap %d should be even", fps)
		}
		return nil
	}

	r, err := settings.NewBuilder().
		WithProfile("game").
		WithFile(settingsFilePath).
		WithEnvPrefix("GAME_").
		WithNotifier(notifier).
		WithValidator(validator).
		Build()
	if err != nil {
		log.Fatalf("❌ Builder failed: %v", err)
	}

	log.Println("✅ Builder finished successfully. Initial values loaded.")
	printCurrentState("Initial State (Env overrides File)")

	// =========================================================================
	// PART 3: MENU NAVIGATION
	// Marker paths group settings for display, container keys address them.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 3: Navigating the menus...")

	fmt.Printf("   Marker groups at root:     %v\n", r.GetMenuItems(""))
	fmt.Printf("   Marker groups in graphics: %v\n", r.GetMenuItems("graphics"))
	for _, e := range r.GetSettings("graphics/display") {
		fmt.Printf("     %s\n", e)
	}

	containers, err := r.GetSettingMenuItems(nil)
	if err != nil {
		log.Fatalf("❌ Menu listing failed: %v", err)
	}
	fmt.Printf("   Containers at root:        %v\n", containers)
	for _, name := range containers {
		entries, _ := r.GetSettingsAt([]string{name})
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		fmt.Printf("     %s: %s\n", name, strings.Join(names, ", "))
	}

	if e := r.GetSetting("graphics/display", "brightness"); e == nil {
		log.Println("✅ Unknown setting reported through the notifier.")
	}

	// =========================================================================
	// PART 4: EDITING
	// Immediate changes are clamped, staged changes wait for a commit.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 4: Editing settings...")

	if err := r.ChangeSetting([]string{"Video", "fps_cap"}, 1000); err != nil {
		log.Fatalf("❌ ChangeSetting failed: %v", err)
	}
	log.Printf("✅ fps_cap clamped to %d.", video.FPSCap)

	if err := r.StageTemporary([]string{"Audio", "master_volume"}, 25); err != nil {
		log.Fatalf("❌ StageTemporary failed: %v", err)
	}
	if err := r.StageTemporary([]string{"Video", "shadows"}, "high"); err != nil {
		log.Fatalf("❌ StageTemporary failed: %v", err)
	}
	log.Printf("   Pending edits: %v (master volume still %d)", r.PendingEdits(), audio.Master)

	if err := r.SaveSettings("game", settingsFilePath); err != nil {
		log.Fatalf("❌ SaveSettings failed: %v", err)
	}
	log.Printf("✅ Pending edits committed and saved, master volume now %d.", audio.Master)
	printCurrentState("After Editing")

	// =========================================================================
	// PART 5: DYNAMIC RELOADING WITH THE WATCHER
	// Another process edits the file and the watcher applies it.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 5: Testing the file watcher...")

	watchOpts := settings.WatchOptions{
		PollInterval: 250 * time.Millisecond,
		Debounce:     100 * time.Millisecond,
	}
	if err := r.WatchFile("game", settingsFilePath, watchOpts); err != nil {
		log.Fatalf("❌ WatchFile failed: %v", err)
	}
	defer r.StopWatch()
	changes := r.Watch()
	log.Println("✅ Watcher is now active with custom options.")

	go modifyFileOnDisk()
	log.Println("   (Modifier goroutine dispatched to change file in 1 second...)")

	select {
	case key := <-changes:
		log.Printf("✅ Watcher detected a change for key: '%s'", key)
		if video.Shadow != "ultra" {
			log.Fatalf("❌ VERIFICATION FAILED: Expected shadows 'ultra', but got '%s'.", video.Shadow)
		}
		log.Println("✅ VERIFICATION SUCCESSFUL: Members were updated by the watcher.")
		printCurrentState("Final State (Updated by Watcher)")

	case <-time.After(5 * time.Second):
		log.Fatalf("❌ TEST FAILED: Timed out waiting for watcher notification.")
	}

	fmt.Println(r.Debug())
}

// modifyFileOnDisk simulates an external program changing one value.
func modifyFileOnDisk() {
	time.Sleep(1 * time.Second)
	log.Println("   (Modifier goroutine: now changing file on disk...)")

	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		log.Fatalf("❌ Modifier failed to read file: %v", err)
	}
	updated := strings.Replace(string(data), `shadows = "high"`, `shadows = "ultra"`, 1)
	if err := os.WriteFile(settingsFilePath, []byte(updated), 0644); err != nil {
		log.Fatalf("❌ Modifier failed to write file: %v", err)
	}
	log.Println("   (Modifier goroutine: finished.)")
}

// printCurrentState displays the live member values.
func printCurrentState(title string) {
	fmt.Println("   --------------------------------------------------")
	fmt.Printf("             %s\n", title)
	fmt.Println("   --------------------------------------------------")
	fmt.Printf("     Player:        %s\n", playerName)
	fmt.Printf("     Render Scale:  %.2f\n", video.Scale)
	fmt.Printf("     FPS Cap:       %d\n", video.FPSCap)
	fmt.Printf("     VSync:         %t\n", video.VSync)
	fmt.Printf("     Shadows:       %s\n", video.Shadow)
	fmt.Printf("     Master Volume: %d\n", audio.Master)
	fmt.Printf("     Music Volume:  %d\n", audio.Music)
	fmt.Println("   --------------------------------------------------")
}
