// Package main provides the entry point for the DICOM viewer.
package main

import (
	"flag"
	"log"

	iapp "dicom-viewer/internal/app"
	"dicom-viewer/internal/config"
	"dicom-viewer/internal/fetch"
	"dicom-viewer/internal/series"
	"dicom-viewer/internal/version"
	"dicom-viewer/ui/mainwindow"
	"dicom-viewer/ui/prefs"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
)

const appTitle = "DICOM Viewer"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	configPath := flag.String("config", "", "path to YAML configuration file")
	catalogueFlag := flag.String("catalogue", "", "catalogue URL or file (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", *configPath, err)
		}
		cfg = loaded
	}

	appPrefs := prefs.Load()

	catalogueLoc := *catalogueFlag
	if catalogueLoc == "" {
		catalogueLoc = cfg.Server.CatalogueURL
	}
	if catalogueLoc == "" {
		catalogueLoc = appPrefs.CatalogueLocation()
	}

	resolver := fetch.NewResolver(
		fetch.WithTimeout(cfg.Server.RequestTimeout.Std()),
		fetch.WithProxyPrefix(cfg.Server.ProxyPrefix),
	)
	state := iapp.NewState(cfg, resolver)
	state.SetBrushDiameter(appPrefs.BrushDiameter(state.BrushDiameter()))
	state.SetSegmentationOpacity(appPrefs.SegmentationOpacity(state.SegmentationOpacity()))

	fyneApp := fyneapp.NewWithID("io.dicomviewer.app")
	fyneApp.Settings().SetTheme(&iapp.ViewerTheme{})

	win := mainwindow.New(fyneApp, state, appPrefs)
	win.Resize(fyne.NewSize(1280, 800))

	if catalogueLoc != "" {
		go loadCatalogue(state, appPrefs, catalogueLoc)
	} else {
		log.Println("No catalogue configured; open one via the config file or -catalogue")
	}

	win.ShowAndRun()
}

// loadCatalogue fetches the series catalogue and mounts the first series.
func loadCatalogue(state *iapp.State, appPrefs *prefs.Prefs, location string) {
	cat, err := series.LoadCatalogue(location)
	if err != nil {
		log.Printf("Failed to load catalogue %s: %v", location, err)
		return
	}
	log.Printf("Catalogue loaded: %d series", len(cat.Series))

	state.Catalogue = cat
	appPrefs.SetCatalogueLocation(location)
	if err := appPrefs.Save(); err != nil {
		log.Printf("Failed to save preferences: %v", err)
	}

	if len(cat.Series) > 0 {
		state.SelectSeries(cat.Series[0])
	}
}
